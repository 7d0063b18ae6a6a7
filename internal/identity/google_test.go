package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/bazaar/internal/config"
)

func newVerifier(tokenInfoURL, revokeURL, clientID string) *GoogleVerifier {
	return NewGoogleVerifier(&config.Config{
		GoogleTokenInfoURL: tokenInfoURL,
		GoogleRevokeURL:    revokeURL,
		GoogleClientID:     clientID,
	})
}

func TestVerifyResolvesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_token"); got != "token-abc" {
			t.Errorf("id_token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"sub-1","aud":"client-1","email":"tea@example.com","name":"Tea","picture":"https://p/x.png"}`))
	}))
	defer server.Close()

	payload, err := newVerifier(server.URL, "", "client-1").Verify("token-abc")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if payload.Email != "tea@example.com" || payload.Sub != "sub-1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sub":"sub-1","aud":"someone-else","email":"tea@example.com"}`))
	}))
	defer server.Close()

	if _, err := newVerifier(server.URL, "", "client-1").Verify("token-abc"); err == nil {
		t.Fatal("expected audience error")
	}
}

func TestVerifyRejectsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	if _, err := newVerifier(server.URL, "", "").Verify("expired"); err == nil {
		t.Fatal("expected status error")
	}
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	if _, err := newVerifier("http://unused", "", "").Verify(""); err == nil {
		t.Fatal("expected empty token error")
	}
}

func TestVerifyRequiresEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sub":"sub-1","aud":"client-1"}`))
	}))
	defer server.Close()

	if _, err := newVerifier(server.URL, "", "client-1").Verify("token"); err == nil {
		t.Fatal("expected missing email error")
	}
}

func TestRevokePostsToken(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotToken = r.PostFormValue("token")
	}))
	defer server.Close()

	if err := newVerifier("", server.URL, "").Revoke("token-abc"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if gotToken != "token-abc" {
		t.Errorf("token = %q", gotToken)
	}
}
