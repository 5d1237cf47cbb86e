package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/progress"
)

const maxSnapshotBytes = 1 << 20

// envelope is the response shape of the progress API: {success, message} or {success, data}.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ProgressHandler exposes a progress store over REST so other deployments can use it as their remote.
type ProgressHandler struct {
	store   progress.RemoteStore
	service *app.QuizService
}

func NewProgressHandler(store progress.RemoteStore, service *app.QuizService) *ProgressHandler {
	return &ProgressHandler{store: store, service: service}
}

// Routes mounts the player routes; they expect RequireUser upstream.
func (h *ProgressHandler) Routes(r chi.Router) {
	r.Get("/api/progress/{quizId}", h.GetProgress)
	r.Put("/api/progress/{quizId}", h.SaveProgress)
	r.Delete("/api/progress/{quizId}", h.ResetOwnProgress)
}

// AdminRoutes mounts the reset route used by support tooling.
func (h *ProgressHandler) AdminRoutes(r chi.Router) {
	r.Delete("/api/admin/progress/{user}/{quizId}", h.ResetProgress)
}

// GetProgress returns {success: true, data: snapshot|null}.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	key, ok := playerKey(w, r)
	if !ok {
		return
	}
	raw, err := h.store.GetProgress(r.Context(), key)
	if errors.Is(err, domain.ErrProgressNotFound) {
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: json.RawMessage("null")})
		return
	}
	if err != nil {
		log.Printf("progress api: get %s: %v", key, err)
		writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "progress store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: raw})
}

// SaveProgress stores the request body as the player's snapshot.
func (h *ProgressHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	key, ok := playerKey(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes+1))
	if err != nil || len(body) > maxSnapshotBytes {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "snapshot body too large or unreadable"})
		return
	}
	snap, err := progress.Decode(body, key)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: err.Error()})
		return
	}
	payload, err := progress.Encode(snap)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Message: err.Error()})
		return
	}
	if err := h.store.SaveProgress(r.Context(), key, payload); err != nil {
		log.Printf("progress api: save %s: %v", key, err)
		writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "progress store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "progress saved"})
}

// ResetOwnProgress clears the caller's record.
func (h *ProgressHandler) ResetOwnProgress(w http.ResponseWriter, r *http.Request) {
	key, ok := playerKey(w, r)
	if !ok {
		return
	}
	h.reset(w, r, key)
}

// ResetProgress clears any user's record.
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	key := domain.ProgressKey{User: chi.URLParam(r, "user"), QuizID: chi.URLParam(r, "quizId")}
	h.reset(w, r, key)
}

func (h *ProgressHandler) reset(w http.ResponseWriter, r *http.Request, key domain.ProgressKey) {
	if err := h.service.Reset(r.Context(), key.User, key.QuizID); err != nil {
		if errors.Is(err, domain.ErrMissingIdentity) {
			writeJSON(w, http.StatusBadRequest, envelope{Message: err.Error()})
			return
		}
		log.Printf("progress api: reset %s: %v", key, err)
		writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "progress store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "progress reset"})
}

func playerKey(w http.ResponseWriter, r *http.Request) (domain.ProgressKey, bool) {
	user, err := ContextIdentity{}.CurrentUser(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, envelope{Message: err.Error()})
		return domain.ProgressKey{}, false
	}
	return domain.ProgressKey{User: user, QuizID: chi.URLParam(r, "quizId")}, true
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("progress api: write response: %v", err)
	}
}
