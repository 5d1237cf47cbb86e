package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scenario-quiz-service/internal/domain"
)

// ProgressClient is a progress.RemoteStore that talks to another instance's progress API.
type ProgressClient struct {
	baseURL    string
	adminToken string
	http       *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewProgressClient targets baseURL (e.g. http://progress:8080). adminToken is only needed for resets
// of other users and may be empty.
func NewProgressClient(baseURL, adminToken string, timeout time.Duration) *ProgressClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProgressClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		http:       &http.Client{Timeout: timeout},
	}
}

func (c *ProgressClient) SaveProgress(ctx context.Context, key domain.ProgressKey, payload []byte) error {
	_, err := c.do(ctx, http.MethodPut, "/api/progress/"+url.PathEscape(key.QuizID), key.User, payload)
	return err
}

func (c *ProgressClient) GetProgress(ctx context.Context, key domain.ProgressKey) ([]byte, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/progress/"+url.PathEscape(key.QuizID), key.User, nil)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, domain.ErrProgressNotFound
	}
	return env.Data, nil
}

func (c *ProgressClient) ResetProgress(ctx context.Context, key domain.ProgressKey) error {
	if c.adminToken == "" {
		_, err := c.do(ctx, http.MethodDelete, "/api/progress/"+url.PathEscape(key.QuizID), key.User, nil)
		return err
	}
	path := "/api/admin/progress/" + url.PathEscape(key.User) + "/" + url.PathEscape(key.QuizID)
	_, err := c.do(ctx, http.MethodDelete, path, "", nil)
	return err
}

func (c *ProgressClient) do(ctx context.Context, method, path, user string, body []byte) (envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	if c.adminToken != "" && user == "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 2<<20)).Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("%s %s: status %d: decode response: %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return env, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, env.Message)
	}
	return env, nil
}
