package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// UserInfo is the identity payload returned by the provider
type UserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Nickname      string `json:"nickname,omitempty"`
	Picture       string `json:"picture,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// Provider resolves a bearer token into the identity behind it
type Provider interface {
	UserInfo(ctx context.Context, token string) (*UserInfo, error)
}

// ProviderError describes a rejection from the provider: a non-2xx status,
// an error body, or an identity without a subject
type ProviderError struct {
	Status      int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	code := e.Code
	if code == "" {
		code = "Unknown error"
	}
	return fmt.Sprintf("identity provider error: %d - %s", e.Status, code)
}

// RateLimited reports whether the provider throttled the call
func (e *ProviderError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// UserInfoProvider calls an OIDC user-info endpoint such as Auth0's /userinfo
type UserInfoProvider struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewUserInfoProvider builds a provider for the given tenant domain. Outbound
// calls are bounded by timeout and by the limiter when ratePerSec > 0.
func NewUserInfoProvider(domain string, timeout time.Duration, ratePerSec float64, burst int) *UserInfoProvider {
	endpoint := domain
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	endpoint = strings.TrimSuffix(endpoint, "/") + "/userinfo"

	var limiter *rate.Limiter
	if ratePerSec > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return &UserInfoProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

func (p *UserInfoProvider) UserInfo(ctx context.Context, token string) (*UserInfo, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("no response from identity provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read identity provider response: %w", err)
	}

	var payload struct {
		UserInfo
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	decodeErr := json.Unmarshal(body, &payload)

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok || payload.Error != "" {
		return nil, &ProviderError{
			Status:      resp.StatusCode,
			Code:        payload.Error,
			Description: payload.ErrorDescription,
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode identity provider response: %w", decodeErr)
	}
	if payload.Subject == "" {
		return nil, &ProviderError{Status: resp.StatusCode, Code: "missing_subject"}
	}
	info := payload.UserInfo
	return &info, nil
}
