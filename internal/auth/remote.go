package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/cache"
)

var remoteTracer = otel.Tracer("github.com/leafyhealth/accounting-management/auth")

const verifyPath = "/auth/verify"

// RemoteVerifier asks the auth service to validate tokens and caches
// positive answers under a hash of the token.
type RemoteVerifier struct {
	baseURL  string
	client   *http.Client
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRemoteVerifier builds a verifier calling baseURL + /auth/verify.
func NewRemoteVerifier(baseURL string, timeout time.Duration, store cache.Store, cacheTTL time.Duration, logger *zap.Logger) *RemoteVerifier {
	if store == nil {
		store = cache.Noop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteVerifier{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		cache:    store,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

type verifyResponse struct {
	Success bool       `json:"success"`
	Data    *Principal `json:"data"`
	Message string     `json:"message"`
}

// Verify resolves token through the cache or the auth service.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	key := cacheKey(token)
	if v.cacheTTL > 0 {
		if p, err := cache.GetJSON[Principal](ctx, v.cache, key); err == nil {
			return p, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			v.logger.Warn("auth cache read failed", zap.Error(err))
		}
	}

	ctx, span := remoteTracer.Start(ctx, "auth.verify")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+verifyPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := v.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "auth service unreachable")
		return nil, fmt.Errorf("call auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return nil, fmt.Errorf("auth service returned %s", resp.Status)
	}

	var body verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if !body.Success || body.Data == nil || body.Data.ID == "" {
		return nil, ErrInvalidToken
	}

	if v.cacheTTL > 0 {
		if err := cache.SetJSON(ctx, v.cache, key, body.Data, v.cacheTTL); err != nil {
			v.logger.Warn("auth cache write failed", zap.Error(err))
		}
	}
	return body.Data, nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:token:" + hex.EncodeToString(sum[:])
}
