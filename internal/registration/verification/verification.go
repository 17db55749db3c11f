// Package verification checks the human verification token collected in the
// first wizard step.
package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "numerano/pkg/domain-errors"
)

// Verifier validates a client-supplied verification token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// AcceptAll accepts any non-empty token. Used when no secret is configured.
type AcceptAll struct{}

func (AcceptAll) Verify(_ context.Context, token, _ string) error {
	if strings.TrimSpace(token) == "" {
		return dErrors.New(dErrors.CodeValidation, "verification token is required")
	}
	return nil
}

// Recaptcha verifies tokens against a reCAPTCHA siteverify endpoint.
type Recaptcha struct {
	secret   string
	endpoint string
	client   *http.Client
}

func NewRecaptcha(secret, endpoint string, timeout time.Duration) *Recaptcha {
	return &Recaptcha{
		secret:   secret,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return dErrors.New(dErrors.CodeValidation, "verification token is required")
	}

	form := url.Values{"secret": {r.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "verification service unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dErrors.New(dErrors.CodeTimeout, fmt.Sprintf("verification service returned %d", resp.StatusCode))
	}

	var body siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "decode siteverify response")
	}
	if !body.Success {
		return dErrors.New(dErrors.CodeValidation, "verification failed").
			WithDetail("reasons", body.ErrorCodes)
	}
	return nil
}
