package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"scenario-quiz-service/internal/domain"
)

// RemoteStore is the authoritative progress port. Payloads are snapshot JSON documents.
type RemoteStore interface {
	SaveProgress(ctx context.Context, key domain.ProgressKey, payload []byte) error
	// GetProgress returns domain.ErrProgressNotFound when nothing is stored.
	GetProgress(ctx context.Context, key domain.ProgressKey) ([]byte, error)
	ResetProgress(ctx context.Context, key domain.ProgressKey) error
}

// LocalCache is a namespaced key-value mirror of the last saved snapshot.
type LocalCache interface {
	// Get returns domain.ErrProgressNotFound for missing keys.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Source tells which sink a loaded snapshot came from.
type Source string

const (
	SourceNone   Source = ""
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// SaveResult reports which sinks accepted a save.
type SaveResult struct {
	Remote bool
	Local  bool
}

const defaultTimeout = 5 * time.Second

// Gateway writes remote first, mirrors locally, and reads remote before local.
// The remote always wins when it returns data; no merge of differing histories is attempted.
type Gateway struct {
	remote  RemoteStore
	local   LocalCache
	timeout time.Duration
}

// NewGateway accepts a nil remote for local-only deployments. timeout bounds every store call.
func NewGateway(remote RemoteStore, local LocalCache, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{remote: remote, local: local, timeout: timeout}
}

// Save attempts both sinks. A remote failure never skips the local mirror; the returned error
// joins whatever failed and is meant to be logged, not surfaced.
func (g *Gateway) Save(ctx context.Context, key domain.ProgressKey, snap domain.ProgressSnapshot) (SaveResult, error) {
	payload, err := Encode(snap)
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode snapshot: %w", err)
	}

	var result SaveResult
	var errs []error
	if err := g.saveRemote(ctx, key, payload); err != nil {
		errs = append(errs, err)
	} else {
		result.Remote = true
	}

	if g.local != nil {
		lctx, cancel := context.WithTimeout(ctx, g.timeout)
		err := g.local.Set(lctx, key.String(), payload)
		cancel()
		if err != nil {
			observe("save", "local", err)
			errs = append(errs, fmt.Errorf("local save: %w", err))
		} else {
			observe("save", "local", nil)
			result.Local = true
		}
	}
	return result, errors.Join(errs...)
}

func (g *Gateway) saveRemote(ctx context.Context, key domain.ProgressKey, payload []byte) error {
	if g.remote == nil {
		return fmt.Errorf("%w: not configured", domain.ErrRemoteUnavailable)
	}
	rctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	timer := remoteTimer("save")
	err := g.remote.SaveProgress(rctx, key, payload)
	timer.ObserveDuration()
	observe("save", "remote", err)
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", domain.ErrRemoteUnavailable, key, err)
	}
	return nil
}

// Load returns the normalized snapshot and its source, or nil when neither sink has one.
// Store failures are logged and fall through; only a cancelled ctx is returned as an error.
func (g *Gateway) Load(ctx context.Context, key domain.ProgressKey) (*domain.ProgressSnapshot, Source, error) {
	if g.remote != nil {
		raw, err := g.loadRemote(ctx, key)
		switch {
		case err == nil:
			snap, derr := Decode(raw, key)
			if derr == nil {
				return &snap, SourceRemote, nil
			}
			log.Printf("progress: unreadable remote snapshot for %s: %v", key, derr)
		case errors.Is(err, domain.ErrProgressNotFound):
		default:
			log.Printf("progress: remote load failed for %s: %v", key, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, SourceNone, err
	}
	if g.local == nil {
		return nil, SourceNone, nil
	}

	for _, k := range append([]string{key.String()}, key.LegacyKeys()...) {
		lctx, cancel := context.WithTimeout(ctx, g.timeout)
		raw, err := g.local.Get(lctx, k)
		cancel()
		if errors.Is(err, domain.ErrProgressNotFound) {
			continue
		}
		observe("load", "local", err)
		if err != nil {
			log.Printf("progress: local load failed for %s: %v", k, err)
			continue
		}
		snap, derr := Decode(raw, key)
		if derr != nil {
			log.Printf("progress: unreadable local snapshot %s: %v", k, derr)
			continue
		}
		return &snap, SourceLocal, nil
	}
	return nil, SourceNone, nil
}

func (g *Gateway) loadRemote(ctx context.Context, key domain.ProgressKey) ([]byte, error) {
	rctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	timer := remoteTimer("load")
	raw, err := g.remote.GetProgress(rctx, key)
	timer.ObserveDuration()
	if errors.Is(err, domain.ErrProgressNotFound) {
		observe("load", "remote", nil)
		return nil, err
	}
	observe("load", "remote", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	return raw, nil
}

// Clear drops the local entry and every legacy spelling of its key.
func (g *Gateway) Clear(ctx context.Context, key domain.ProgressKey) error {
	if g.local == nil {
		return nil
	}
	lctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	err := g.local.Delete(lctx, append([]string{key.String()}, key.LegacyKeys()...)...)
	observe("clear", "local", err)
	if err != nil {
		return fmt.Errorf("clear local progress %s: %w", key, err)
	}
	return nil
}

// Reset removes the remote record and the local mirror for one user and quiz.
func (g *Gateway) Reset(ctx context.Context, key domain.ProgressKey) error {
	if g.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, g.timeout)
		err := g.remote.ResetProgress(rctx, key)
		cancel()
		observe("reset", "remote", err)
		if err != nil {
			return fmt.Errorf("%w: reset %s: %v", domain.ErrRemoteUnavailable, key, err)
		}
	}
	return g.Clear(ctx, key)
}
