package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goBank "github.com/MrEthical07/goBank"
	"github.com/MrEthical07/goBank/store/memory"
)

func newServerTest(t *testing.T) (*goBank.Engine, http.Handler) {
	t.Helper()

	cfg := goBank.DefaultConfig()
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := goBank.New().
		WithConfig(cfg).
		WithRepository(memory.New()).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, NewServer(engine, Options{}).Routes()
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, h http.Handler, identity, pw string) string {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/v1/login", "", map[string]string{"identity": identity, "password": pw})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", identity, rec.Code, rec.Body)
	}
	var res loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return res.Token
}

func register(t *testing.T, h http.Handler, identity, pw, initial string) {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/v1/register", "", map[string]string{
		"identity":        identity,
		"password":        pw,
		"initial_balance": initial,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", identity, rec.Code, rec.Body)
	}
}

func balanceOf(t *testing.T, h http.Handler, token string) string {
	t.Helper()

	rec := do(t, h, http.MethodGet, "/v1/balance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: status %d body %s", rec.Code, rec.Body)
	}
	var res struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	return res.Balance
}

func TestHTTPAliceFlow(t *testing.T) {
	_, h := newServerTest(t)
	register(t, h, "alice", "secretpw", "100.00")

	rec := do(t, h, http.MethodPost, "/v1/login", "", map[string]string{"identity": "alice", "password": "secretpw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"balance":"100.00"`) {
		t.Fatalf("login body missing balance: %s", rec.Body)
	}
	token := loginToken(t, h, "alice", "secretpw")

	rec = do(t, h, http.MethodPost, "/v1/deposit", token, map[string]string{"amount": "0.50"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"100.50"`) {
		t.Fatalf("deposit: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPost, "/v1/withdraw", token, map[string]string{"amount": "500.00"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraw: expected 422, got %d", rec.Code)
	}

	if got := balanceOf(t, h, token); got != "100.50" {
		t.Fatalf("balance = %s, want 100.50", got)
	}
}

func TestHTTPBodyIdentityIgnored(t *testing.T) {
	_, h := newServerTest(t)
	register(t, h, "alice", "secretpw", "10.00")
	register(t, h, "bob", "bobpw", "10.00")
	alice := loginToken(t, h, "alice", "secretpw")

	body := `{"amount":"5.00","identity":"bob","account":"bob"}`
	rec := do(t, h, http.MethodPost, "/v1/withdraw", alice, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw: %d %s", rec.Code, rec.Body)
	}

	if got := balanceOf(t, h, alice); got != "5.00" {
		t.Fatalf("alice balance = %s, want 5.00", got)
	}
	bob := loginToken(t, h, "bob", "bobpw")
	if got := balanceOf(t, h, bob); got != "10.00" {
		t.Fatalf("bob balance = %s, want 10.00", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	_, h := newServerTest(t)
	register(t, h, "alice", "secretpw", "1.00")
	token := loginToken(t, h, "alice", "secretpw")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"duplicate", http.MethodPost, "/v1/register", "", map[string]string{"identity": "alice", "password": "x", "initial_balance": "0.00"}, http.StatusConflict, "username_taken"},
		{"bad amount grammar", http.MethodPost, "/v1/register", "", map[string]string{"identity": "carol", "password": "x", "initial_balance": "5"}, http.StatusBadRequest, "invalid_format"},
		{"malformed json", http.MethodPost, "/v1/login", "", "{", http.StatusBadRequest, "invalid_format"},
		{"unknown user", http.MethodPost, "/v1/login", "", map[string]string{"identity": "ghost", "password": "x"}, http.StatusUnauthorized, "invalid_credentials"},
		{"wrong password", http.MethodPost, "/v1/login", "", map[string]string{"identity": "alice", "password": "nope"}, http.StatusUnauthorized, "invalid_credentials"},
		{"missing bearer", http.MethodGet, "/v1/balance", "", nil, http.StatusUnauthorized, "unauthenticated"},
		{"forged token", http.MethodGet, "/v1/balance", "abc.def.ghi", nil, http.StatusUnauthorized, "unauthenticated"},
		{"overflow", http.MethodPost, "/v1/deposit", token, map[string]string{"amount": "4294967295.99"}, http.StatusUnprocessableEntity, "overflow"},
		{"negative amount", http.MethodPost, "/v1/deposit", token, map[string]string{"amount": "-1.00"}, http.StatusBadRequest, "invalid_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if tt.code != "" && !strings.Contains(rec.Body.String(), `"`+tt.code+`"`) {
				t.Fatalf("body %s missing code %q", rec.Body, tt.code)
			}
		})
	}
}

func TestHTTPUnknownAndWrongPasswordIndistinguishable(t *testing.T) {
	_, h := newServerTest(t)
	register(t, h, "alice", "secretpw", "1.00")

	a := do(t, h, http.MethodPost, "/v1/login", "", map[string]string{"identity": "ghost", "password": "x"})
	b := do(t, h, http.MethodPost, "/v1/login", "", map[string]string{"identity": "alice", "password": "x"})
	if a.Code != b.Code || a.Body.String() != b.Body.String() {
		t.Fatalf("responses differ: %d %s vs %d %s", a.Code, a.Body, b.Code, b.Body)
	}
}

func TestHTTPBodyTooLarge(t *testing.T) {
	_, h := newServerTest(t)

	big := `{"identity":"` + strings.Repeat("a", 8<<10) + `"}`
	rec := do(t, h, http.MethodPost, "/v1/register", "", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHTTPHealthAndMetrics(t *testing.T) {
	engine, h := newServerTest(t)
	if err := engine.Register(context.Background(), "alice", "secretpw", "1.00"); err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gobank_register_success_total 1") {
		t.Fatalf("metrics body missing register counter:\n%s", rec.Body)
	}
}

func TestHTTPCORSPreflight(t *testing.T) {
	_, h := newServerTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/deposit", nil)
	req.Header.Set("Origin", "https://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected CORS headers, got %v", rec.Header())
	}
}
