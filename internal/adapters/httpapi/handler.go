// Package httpapi serves the family chores REST API over any backend adapter.
package httpapi

import (
	"encoding/json"
	"errors"
	"familychores/pkg/domain"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20

// Handler exposes a domain.Adapter as JSON over HTTP.
type Handler struct {
	Backend domain.Adapter
	Logger  *slog.Logger
	mux     *http.ServeMux
}

// NewHandler constructs the REST handler. Routes are relative to where it is mounted.
func NewHandler(backend domain.Adapter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{Backend: backend, Logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /family-members", h.handleListMembers)
	h.mux.HandleFunc("POST /family-members", h.handleCreateMember)
	h.mux.HandleFunc("DELETE /family-members/{id}", h.handleDeleteMember)
	h.mux.HandleFunc("GET /chore-templates", h.handleListTemplates)
	h.mux.HandleFunc("POST /chore-templates", h.handleCreateTemplate)
	h.mux.HandleFunc("DELETE /chore-templates/{id}", h.handleDeleteTemplate)
	h.mux.HandleFunc("POST /family-members/{memberId}/chores", h.handleCreateChore)
	h.mux.HandleFunc("POST /family-members/{memberId}/chores/template/{templateId}", h.handleAssign)
	h.mux.HandleFunc("PUT /family-members/{memberId}/chores/{choreId}", h.handleUpdateChore)
	h.mux.HandleFunc("DELETE /family-members/{memberId}/chores/{choreId}", h.handleDeleteChore)
	h.mux.HandleFunc("PUT /family-members/{fromId}/chores/{choreId}/reassign/{toId}", h.handleReassign)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Backend == nil {
		writeError(w, http.StatusInternalServerError, "backend not configured")
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Backend.ListMembers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if members == nil {
		members = []domain.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var member domain.FamilyMember
	if !decodeBody(w, r, &member) {
		return
	}
	created, err := h.Backend.CreateMember(r.Context(), member)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.Backend.DeleteMember(r.Context(), id)
	h.finishDelete(w, r, err, domain.EntityMember)
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Backend.ListTemplates(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if templates == nil {
		templates = []domain.ChoreTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var template domain.ChoreTemplate
	if !decodeBody(w, r, &template) {
		return
	}
	if strings.TrimSpace(template.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "template name is required")
		return
	}
	created, err := h.Backend.CreateTemplate(r.Context(), template)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	err := h.Backend.DeleteTemplate(r.Context(), r.PathValue("id"))
	h.finishDelete(w, r, err, domain.EntityTemplate)
}

func (h *Handler) handleCreateChore(w http.ResponseWriter, r *http.Request) {
	var chore domain.Chore
	if !decodeBody(w, r, &chore) {
		return
	}
	created, err := h.Backend.CreateChore(r.Context(), r.PathValue("memberId"), chore)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	created, err := h.Backend.AssignFromTemplate(r.Context(), r.PathValue("templateId"), r.PathValue("memberId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateChore(w http.ResponseWriter, r *http.Request) {
	var chore domain.Chore
	if !decodeBody(w, r, &chore) {
		return
	}
	choreID := r.PathValue("choreId")
	chore.ID = choreID
	if err := h.Backend.UpdateChore(r.Context(), r.PathValue("memberId"), choreID, chore); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *Handler) handleDeleteChore(w http.ResponseWriter, r *http.Request) {
	err := h.Backend.DeleteChore(r.Context(), r.PathValue("memberId"), r.PathValue("choreId"))
	h.finishDelete(w, r, err, domain.EntityChore)
}

func (h *Handler) handleReassign(w http.ResponseWriter, r *http.Request) {
	err := h.Backend.ReassignChore(r.Context(), r.PathValue("fromId"), r.PathValue("toId"), r.PathValue("choreId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// finishDelete treats a missing target as already deleted; a missing parent is still 404.
func (h *Handler) finishDelete(w http.ResponseWriter, r *http.Request, err error, target domain.EntityType) {
	var nf domain.NotFoundError
	if err != nil && !(errors.As(err, &nf) && nf.Entity == target) {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var nf domain.NotFoundError
	var violation domain.RuleViolationError
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, notFoundMessage(nf))
	case errors.As(err, &violation):
		writeError(w, http.StatusUnprocessableEntity, violation.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.Logger.Error("backend request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func notFoundMessage(nf domain.NotFoundError) string {
	switch nf.Entity {
	case domain.EntityMember:
		return "Member not found"
	case domain.EntityTemplate:
		return "Template not found"
	case domain.EntityChore:
		return "Chore not found"
	default:
		return nf.Error()
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON payload: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
