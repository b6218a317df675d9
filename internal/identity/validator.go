package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultTokenTTL is how long a validated identity stays cached
const DefaultTokenTTL = 30 * time.Minute

// Validator checks bearer tokens against a Provider and memoizes the result
type Validator struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	group    singleflight.Group
	log      logrus.FieldLogger
}

// NewValidator creates a Validator. A non-positive ttl falls back to DefaultTokenTTL.
func NewValidator(provider Provider, cache Cache, ttl time.Duration, log logrus.FieldLogger) *Validator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Validator{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		log:      log.WithField("component", "token_validator"),
	}
}

// ValidateAccessToken returns the identity behind token. Cached identities are
// returned without calling the provider; concurrent misses for the same token
// share one provider call. Every failure surfaces as the same Unauthorized error.
func (v *Validator) ValidateAccessToken(ctx context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Invalid access token")
	}
	key := CacheKey(token)

	if info, ok := v.lookup(ctx, key); ok {
		return info, nil
	}

	res, err, shared := v.group.Do(key, func() (interface{}, error) {
		return v.fetch(context.WithoutCancel(ctx), key, token)
	})
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid access token")
	}
	if shared {
		v.log.Debug("Joined in-flight identity lookup")
	}
	info := *res.(*UserInfo)
	return &info, nil
}

func (v *Validator) lookup(ctx context.Context, key string) (*UserInfo, bool) {
	raw, ok, err := v.cache.Get(ctx, key)
	if err != nil {
		metrics.TokenCacheLookups.WithLabelValues("error").Inc()
		v.log.WithError(err).Warn("Token cache read failed, falling back to identity provider")
		return nil, false
	}
	if !ok {
		metrics.TokenCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	var info UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		metrics.TokenCacheLookups.WithLabelValues("error").Inc()
		v.log.WithError(err).Warn("Discarding undecodable cached identity")
		return nil, false
	}
	metrics.TokenCacheLookups.WithLabelValues("hit").Inc()
	v.log.Debug("Using cached identity")
	return &info, true
}

func (v *Validator) fetch(ctx context.Context, key, token string) (*UserInfo, error) {
	v.log.Debug("Cache miss: fetching identity from provider")
	info, err := v.provider.UserInfo(ctx, token)
	if err != nil {
		v.logProviderError(err)
		return nil, err
	}
	if info == nil || info.Subject == "" {
		err := &ProviderError{Code: "missing_subject"}
		v.logProviderError(err)
		return nil, err
	}
	metrics.IdentityProviderCalls.WithLabelValues("ok").Inc()

	raw, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	if err := v.cache.Set(ctx, key, raw, v.ttl); err != nil {
		v.log.WithError(err).Warn("Token cache write failed")
	}
	return info, nil
}

func (v *Validator) logProviderError(err error) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		metrics.IdentityProviderCalls.WithLabelValues("rejected").Inc()
		entry := v.log.WithFields(logrus.Fields{
			"status": perr.Status,
			"error":  perr.Code,
		})
		entry.Errorf("Identity provider API error: %d - %s", perr.Status, codeOrUnknown(perr.Code))
		if perr.RateLimited() {
			v.log.Error("Rate limit exceeded with identity provider API!")
		}
		return
	}
	metrics.IdentityProviderCalls.WithLabelValues("failed").Inc()
	v.log.WithError(err).Error("Identity provider validation error")
}

func codeOrUnknown(code string) string {
	if code == "" {
		return "Unknown error"
	}
	return code
}
