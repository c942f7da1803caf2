package httpapi

import (
	"net/http"
	"testing"
)

func TestGateRejectsMissingBearer(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/v1/auth/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header")
	}
}

func TestGateRejectsMalformedScheme(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/v1/auth/me", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGateRejectsRefreshTokenAsAccess(t *testing.T) {
	c := newTestAPI(t)
	result := c.register("gate@example.com", strongPassword)

	resp := c.get("/v1/auth/me", bearerHeader(result.Tokens.RefreshToken))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token at the gate, got %d", resp.StatusCode)
	}
	var body map[string]any
	c.decode(resp, &body)
	if body["code"] != "invalid_token" {
		t.Fatalf("expected invalid_token, got %v", body)
	}
}

func TestGateRejectsTamperedToken(t *testing.T) {
	c := newTestAPI(t)
	result := c.register("tamper@example.com", strongPassword)

	tampered := result.Tokens.AccessToken + "x"
	resp := c.get("/v1/auth/me", bearerHeader(tampered))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", resp.StatusCode)
	}
}

func TestGateSkipsPublicPaths(t *testing.T) {
	c := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/metrics"} {
		resp := c.get(path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected %s to be public, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestGateAllowsPreflight(t *testing.T) {
	c := newTestAPI(t)

	req, err := http.NewRequest(http.MethodOptions, c.baseURL+"/v1/auth/me", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.StatusCode)
	}
}
