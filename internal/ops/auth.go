// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenURL is the OAuth2 client-credentials exchange endpoint. Declared as
// a var so tests can substitute an httptest server.
var tokenURL = "https://ops.epo.org/3.2/auth/accesstoken"

// refreshSkew is subtracted from the token expiry when deciding whether a
// cached token is still usable, so a token is refreshed before it can
// expire mid-request.
const refreshSkew = 30 * time.Second

// TokenSource obtains and caches a bearer access token via the OAuth2
// client-credentials flow. The check-then-refresh sequence is guarded by a
// mutex, so concurrent callers share one exchange instead of racing.
type TokenSource struct {
	Client *http.Client
	Key    string
	Secret string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenSource returns a TokenSource using the given credentials.
func NewTokenSource(client *http.Client, key, secret string) *TokenSource {
	return &TokenSource{Client: client, Key: key, Secret: secret}
}

// Token returns a valid access token, reusing the cached one while it has
// more than refreshSkew of validity left and exchanging credentials
// otherwise. A failed exchange returns an *AuthError; no retry is
// performed here.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiry.Add(-refreshSkew)) {
		return ts.token, nil
	}
	return ts.refresh(ctx)
}

// refresh performs the client-credentials exchange. Callers hold ts.mu.
func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(ts.Key, ts.Secret)

	resp, err := ts.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &AuthError{Status: resp.StatusCode, Endpoint: tokenURL}
	}

	// expires_in arrives as a JSON string from this provider, but other
	// deployments send a number; json.Number accepts both.
	var body struct {
		AccessToken string      `json:"access_token"`
		ExpiresIn   json.Number `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	ttl, err := body.ExpiresIn.Int64()
	if err != nil || ttl <= 0 {
		return "", fmt.Errorf("token response has invalid expires_in %q", body.ExpiresIn)
	}

	ts.token = body.AccessToken
	ts.expiry = time.Now().Add(time.Duration(ttl) * time.Second)
	return ts.token, nil
}
