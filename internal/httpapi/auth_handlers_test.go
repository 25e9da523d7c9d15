package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medvault.org/internal/audit"
	"medvault.org/internal/auth"
)

func postJSON(t *testing.T, handler http.Handler, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRegisterIssuesToken(t *testing.T) {
	env := newTestEnv(t)

	rr := postJSON(t, env.api.Handler(), "/auth/register",
		`{"email":"Doc@Example.org","password":"s3cret-pass","role":"CLINICIAN"}`, "")

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" || resp.Type != "Bearer" {
		t.Fatalf("unexpected token response: %+v", resp)
	}
	if resp.Email != "doc@example.org" {
		t.Fatalf("expected normalized email, got %q", resp.Email)
	}
	if resp.ExpiresIn != 3600 {
		t.Fatalf("unexpected expiresIn: %d", resp.ExpiresIn)
	}

	claims, err := env.codec.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Role != "CLINICIAN" {
		t.Fatalf("unexpected role claim: %q", claims.Role)
	}
	if !env.sink.has(audit.EventUserRegistered) {
		t.Fatalf("expected USER_REGISTERED audit event")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	h := env.api.Handler()

	if rr := postJSON(t, h, "/auth/register", `{"email":"doc@example.org","password":"s3cret-pass"}`, ""); rr.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rr.Code)
	}
	rr := postJSON(t, h, "/auth/register", `{"email":"DOC@example.org","password":"other-pass1"}`, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	h := env.api.Handler()

	cases := map[string]string{
		"short password": `{"email":"doc@example.org","password":"short"}`,
		"bad role":       `{"email":"doc@example.org","password":"s3cret-pass","role":"WIZARD"}`,
		"no body":        ``,
		"unknown field":  `{"email":"doc@example.org","password":"s3cret-pass","admin":true}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if rr := postJSON(t, h, "/auth/register", body, ""); rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestLoginFlows(t *testing.T) {
	env := newTestEnv(t)
	h := env.api.Handler()

	if rr := postJSON(t, h, "/auth/register", `{"email":"doc@example.org","password":"s3cret-pass"}`, ""); rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rr.Code)
	}

	t.Run("success", func(t *testing.T) {
		rr := postJSON(t, h, "/auth/login", `{"email":"doc@example.org","password":"s3cret-pass"}`, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp tokenResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Token == "" {
			t.Fatalf("expected a token")
		}
		if !env.sink.has(audit.EventUserLogin) {
			t.Fatalf("expected USER_LOGIN audit event")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := postJSON(t, h, "/auth/login", `{"email":"doc@example.org","password":"wrong-pass1"}`, "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		rr := postJSON(t, h, "/auth/login", `{"email":"ghost@example.org","password":"whatever1"}`, "")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}

func TestDeactivatedAccountCannotLogin(t *testing.T) {
	env := newTestEnv(t)
	h := env.api.Handler()

	rr := postJSON(t, h, "/auth/register", `{"email":"doc@example.org","password":"s3cret-pass"}`, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rr.Code)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	// Deactivation is admin-only.
	if rr := postJSON(t, h, "/users/"+resp.UserID+"/deactivate", ``, env.bearer(t, auth.RoleStaff)); rr.Code != http.StatusForbidden {
		t.Fatalf("staff deactivate: expected 403, got %d", rr.Code)
	}
	if rr := postJSON(t, h, "/users/"+resp.UserID+"/deactivate", ``, env.bearer(t, auth.RoleAdmin)); rr.Code != http.StatusOK {
		t.Fatalf("admin deactivate: expected 200, got %d", rr.Code)
	}

	// A correct password on a deactivated account is forbidden, not invalid.
	rr = postJSON(t, h, "/auth/login", `{"email":"doc@example.org","password":"s3cret-pass"}`, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
