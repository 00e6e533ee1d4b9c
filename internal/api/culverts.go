package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trubochisty/culvert-core/internal/audit"
	"github.com/trubochisty/culvert-core/internal/culvert"
)

// handleListCulverts returns all culverts, or those matching an
// address fragment via ?address=.
func (s *Server) handleListCulverts(w http.ResponseWriter, r *http.Request) {
	culverts, err := s.culverts.List(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"culverts": culverts,
		"count":    len(culverts),
	})
}

// handleCreateCulvert registers a new culvert.
func (s *Server) handleCreateCulvert(w http.ResponseWriter, r *http.Request) {
	var c culvert.Culvert
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	c.ID = ""

	if err := s.culverts.Create(r.Context(), &c); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityCulvert, c.ID, s.actorID(r),
		map[string]any{"serial_number": c.SerialNumber})

	writeJSON(w, http.StatusCreated, &c)
}

// handleGetCulvert returns a single culvert by ID.
func (s *Server) handleGetCulvert(w http.ResponseWriter, r *http.Request) {
	c, err := s.culverts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// handleUpdateCulvert replaces a culvert record. The path ID wins over
// any ID in the body.
func (s *Server) handleUpdateCulvert(w http.ResponseWriter, r *http.Request) {
	var c culvert.Culvert
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	c.ID = chi.URLParam(r, "id")

	if err := s.culverts.Update(r.Context(), &c); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityCulvert, c.ID, s.actorID(r), nil)

	writeJSON(w, http.StatusOK, &c)
}

// handleDeleteCulvert removes a culvert record.
func (s *Server) handleDeleteCulvert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.culverts.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityCulvert, id, s.actorID(r), nil)

	w.WriteHeader(http.StatusNoContent)
}

// actorID returns the authenticated principal's ID, or empty when the
// request carries no claims.
func (s *Server) actorID(r *http.Request) string {
	if claims, ok := claimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}
