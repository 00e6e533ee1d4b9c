package api

import (
	"encoding/json"
	"net/http"

	"github.com/trubochisty/culvert-core/internal/audit"
	"github.com/trubochisty/culvert-core/internal/auth"
)

// signInRequest is the request body for POST /auth/sign-in.
type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse is the response body for sign-up and sign-in.
type sessionResponse struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresIn int        `json:"expires_in"`
	User      *auth.User `json:"user"`
}

// validateRequest carries a raw token for POST /auth/validate and
// /auth/refresh when it is not supplied as a bearer header.
type validateRequest struct {
	Token string `json:"token"`
}

// handleSignUp registers a new principal.
//
// The bearer token is optional here: self-service VIEWER registration
// needs none, while privileged roles require a valid ADMIN token. An
// invalid token is rejected rather than downgraded to anonymous.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var caller *auth.Claims
	if raw, ok := s.bearerToken(r); ok {
		claims, err := s.auth.Validate(raw)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		caller = claims
	}

	session, err := s.auth.SignUp(r.Context(), in, caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	actor := session.User.ID
	if caller != nil {
		actor = caller.Subject
	}
	s.auditLog(audit.ActionSignUp, audit.EntityUser, session.User.ID, actor,
		map[string]any{"username": session.User.Username, "role": string(session.User.Role)})

	writeJSON(w, http.StatusCreated, s.sessionResponse(session))
}

// handleSignIn authenticates credentials and issues a token.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	session, err := s.auth.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.auditLog(audit.ActionSignIn, audit.EntityUser, session.User.ID, session.User.ID, nil)

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// handleValidate checks a token and returns its claims. The token may
// arrive as a bearer header or in the body.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.tokenFromHeaderOrBody(r)
	if !ok {
		writeBadRequest(w, "token required")
		return
	}

	claims, err := s.auth.Validate(raw)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      true,
		"subject":    claims.Subject,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// handleRefresh exchanges a token within its grace window for a new one.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.tokenFromHeaderOrBody(r)
	if !ok {
		writeBadRequest(w, "token required")
		return
	}

	fresh, err := s.auth.Refresh(raw)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if claims, err := s.auth.Validate(fresh); err == nil {
		s.auditLog(audit.ActionRefresh, audit.EntityUser, claims.Subject, claims.Subject, nil)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      fresh,
		"token_type": s.secCfg.JWT.TokenPrefix,
		"expires_in": int(s.auth.TokenLifetime().Seconds()),
	})
}

// handleMe returns the principal behind the presented token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	user, err := s.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleLogout records a sign-out. Tokens are stateless, so this only
// confirms the token and audits the event; the client discards it.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	s.auditLog(audit.ActionLogout, audit.EntityUser, claims.Subject, claims.Subject, nil)

	writeJSON(w, http.StatusOK, map[string]any{"status": "signed out"})
}

// tokenFromHeaderOrBody extracts the raw token from the bearer header,
// falling back to a JSON body {"token": "..."}.
func (s *Server) tokenFromHeaderOrBody(r *http.Request) (string, bool) {
	if raw, ok := s.bearerToken(r); ok {
		return raw, true
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	return req.Token, req.Token != ""
}

func (s *Server) sessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		Token:     session.Token,
		TokenType: s.secCfg.JWT.TokenPrefix,
		ExpiresIn: int(s.auth.TokenLifetime().Seconds()),
		User:      session.User,
	}
}
