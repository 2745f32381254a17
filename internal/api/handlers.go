// Package api exposes HTTP handlers for the signup service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"example.com/signup/internal/domain"
	"example.com/signup/internal/version"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities", h.listActivities)
	mux.HandleFunc("POST /activities/{name}/signup", h.signup)
	mux.HandleFunc("DELETE /activities/{name}/participants", h.unregister)
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /version", buildInfo)

	// Method-less patterns catch everything the routes above do not accept.
	mux.HandleFunc("/activities", methodNotAllowed)
	mux.HandleFunc("/activities/{name}/signup", methodNotAllowed)
	mux.HandleFunc("/activities/{name}/participants", methodNotAllowed)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func buildInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	activities := h.service.ListActivities(r.Context())

	resp := make(map[string]ActivityView, len(activities))
	for name, a := range activities {
		resp[name] = toActivityView(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Signup(r.Context(), name, email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Signed up %s for %s", email, name)})
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Unregister(r.Context(), name, email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Unregistered %s from %s", email, name)})
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing email parameter")
		return "", false
	}
	return email, true
}

// ActivityView is the JSON shape of a single activity.
type ActivityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
	SpotsLeft       int      `json:"spots_left"`
}

// MessageResponse confirms a roster mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func toActivityView(a domain.Activity) ActivityView {
	participants := a.Participants
	if participants == nil {
		participants = []string{}
	}
	return ActivityView{
		Description:     a.Description,
		Schedule:        a.Schedule,
		MaxParticipants: a.MaxParticipants,
		Participants:    participants,
		SpotsLeft:       a.SpotsLeft(),
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Activity not found")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, "already_registered", "Student is already signed up")
	case errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "not_registered", "Student is not signed up for this activity")
	case errors.Is(err, domain.ErrActivityFull):
		writeError(w, http.StatusBadRequest, "activity_full", "Activity is full")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Type: code, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
