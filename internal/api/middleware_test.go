package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trubochisty/culvert-core/internal/audit"
	"github.com/trubochisty/culvert-core/internal/auth"
)

// rawRequest builds a request with a literal (possibly malformed) body.
func rawRequest(t *testing.T, method, path, token, body string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

func TestRequestIDMiddleware(t *testing.T) {
	env := newTestEnv(t)

	t.Run("generated when absent", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
		if got := rec.Header().Get("X-Request-ID"); len(got) != requestIDBytes*2 {
			t.Errorf("X-Request-ID = %q, want %d hex chars", got, requestIDBytes*2)
		}
	})

	t.Run("client value honoured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("X-Request-ID", "trace-42")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "trace-42" {
			t.Errorf("X-Request-ID = %q, want trace-42", got)
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	env := newTestEnv(t)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/culverts", nil)
		req.Header.Set("Origin", "https://registry.example.com")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://registry.example.com" {
			t.Errorf("Allow-Origin = %q, want the request origin", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
			t.Errorf("Allow-Methods = %q, want DELETE included", got)
		}
	})

	t.Run("no origin no headers", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty without an Origin header", got)
		}
	})
}

func TestAuthMiddleware_HeaderParsing(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "viewer", auth.RoleViewer)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"no prefix", token, http.StatusUnauthorized},
		{"wrong prefix", "Token " + token, http.StatusUnauthorized},
		{"prefix only", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestExpiredTokenRejectedOnProtectedRoute(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, "viewer", auth.RoleViewer)

	// A manager with a negative lifetime signs tokens that are already
	// expired against the server's clock.
	stale := auth.NewTokenManager(testSecret, -2*time.Hour, 60*time.Minute)
	expired, err := stale.Issue(user.ID, user.Role)
	if err != nil {
		t.Fatalf("issuing expired token: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	errBody := decodeBody[Error](t, rec)
	if errBody.Message != "token expired" {
		t.Errorf("message = %q, want token expired", errBody.Message)
	}
}

// TestAuditTrailRecordsMutations exercises the async audit pipeline end
// to end: Start spins up the writer, mutations enqueue entries, Close
// drains them.
func TestAuditTrailRecordsMutations(t *testing.T) {
	env := newTestEnv(t)
	_, engineerToken := env.seedUser(t, "engineer", auth.RoleEngineer)
	_, adminToken := env.seedUser(t, "admin", auth.RoleAdmin)

	ctx := context.Background()
	if err := env.server.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/culverts", engineerToken, culvertBody("KT-300"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	if err := env.server.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The writer is asynchronous; poll briefly for the entry to land.
	deadline := time.Now().Add(2 * time.Second)
	var entries []audit.Entry
	for time.Now().Before(deadline) {
		result, err := env.audit.List(ctx, audit.Filter{Action: audit.ActionCreate})
		if err != nil {
			t.Fatalf("listing audit entries: %v", err)
		}
		entries = result.Entries
		if len(entries) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.EntityType != audit.EntityCulvert {
		t.Errorf("entity type = %s, want culvert", entry.EntityType)
	}
	if !strings.HasPrefix(entry.EntityID, "clv-") {
		t.Errorf("entity ID = %q, want clv- prefix", entry.EntityID)
	}
	if !strings.HasPrefix(entry.Actor, "usr-") {
		t.Errorf("actor = %q, want usr- prefix", entry.Actor)
	}

	// The trail is visible through the API too.
	rec = env.do(t, http.MethodGet, "/api/v1/audit?action=create&entity_type=culvert", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list audit status = %d: %s", rec.Code, rec.Body.String())
	}
	listed := decodeBody[audit.ListResult](t, rec)
	if len(listed.Entries) != 1 {
		t.Errorf("API audit entries = %d, want 1", len(listed.Entries))
	}
}
