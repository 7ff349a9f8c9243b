package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Identity is the result of verifying an identity-provider token
type Identity struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email,omitempty"`
	Handle    string `json:"handle,omitempty"`
}

// Verifier validates bearer tokens against the external identity provider
type Verifier struct {
	httpClient *http.Client
	verifyURL  string
	appSecret  string
}

// NewVerifier creates a new identity verifier
func NewVerifier(verifyURL, appSecret string) *Verifier {
	return &Verifier{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		verifyURL: verifyURL,
		appSecret: appSecret,
	}
}

// VerifyToken asks the identity provider to verify a token and returns the
// resolved identity
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	if v.verifyURL == "" {
		return nil, fmt.Errorf("identity provider not configured")
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.appSecret)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("identity provider rejected token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}

	if ident.SubjectID == "" {
		return nil, fmt.Errorf("identity provider returned empty subject id")
	}

	return &ident, nil
}
