package identity

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/bazaar/internal/config"
)

// GooglePayload is the subset of the tokeninfo response the service uses.
type GooglePayload struct {
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint
// and revokes them on sign-out.
type GoogleVerifier struct {
	httpClient   *http.Client
	tokenInfoURL string
	revokeURL    string
	clientID     string
}

func NewGoogleVerifier(cfg *config.Config) *GoogleVerifier {
	return &GoogleVerifier{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokenInfoURL: cfg.GoogleTokenInfoURL,
		revokeURL:    cfg.GoogleRevokeURL,
		clientID:     cfg.GoogleClientID,
	}
}

// Verify resolves an ID token to its payload. Any verification failure is
// returned as an error; callers map it to INVALID_AUTH_TOKEN.
func (g *GoogleVerifier) Verify(idToken string) (*GooglePayload, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty id token")
	}

	resp, err := g.httpClient.Get(g.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken))
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var payload GooglePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if g.clientID != "" && payload.Aud != g.clientID {
		return nil, fmt.Errorf("invalid audience: %s", payload.Aud)
	}
	if payload.Email == "" {
		return nil, fmt.Errorf("token payload has no email")
	}

	return &payload, nil
}

// Revoke invalidates the token upstream. Failures are reported but the
// sign-out itself proceeds regardless.
func (g *GoogleVerifier) Revoke(idToken string) error {
	form := url.Values{"token": {idToken}}
	resp, err := g.httpClient.Post(g.revokeURL, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke returned status %d", resp.StatusCode)
	}
	return nil
}
