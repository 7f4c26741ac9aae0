package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"3tcapital/gstlens/internal/core/identity"
	"3tcapital/gstlens/internal/infrastructure/config"
	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
	httperrors "3tcapital/gstlens/internal/infrastructure/http"
)

var asymmetricMethods = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodRS384.Alg(),
	jwt.SigningMethodRS512.Alg(),
	jwt.SigningMethodPS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

// userClaims are the identity claims of an ID token. Providers differ on
// whether the user id travels in sub or user_id.
type userClaims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator validates bearer tokens against a remote JWKS and
// resolves them to identity.User.
type JWTAuthenticator struct {
	cfg        config.AuthSettings
	log        *slog.Logger
	keyFunc    jwt.Keyfunc
	methods    []string
	cancel     context.CancelFunc
	bypassPath map[string]struct{}
}

var _ identity.Verifier = (*JWTAuthenticator)(nil)

func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	auth := newAuthenticator(cfg, log, nil, asymmetricMethods)
	if !cfg.Enabled {
		return auth, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	override := keyfunc.Override{
		RefreshInterval: 6 * time.Hour,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(c context.Context, err error) {
				log.Error("failed to refresh JWKS", "url", url, "error", err)
			}
		},
		HTTPTimeout: 10 * time.Second,
	}

	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JWKSetURI}, override)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("unable to load JWKS: %w", err)
	}
	auth.keyFunc = jwks.Keyfunc
	auth.cancel = cancel

	return auth, nil
}

func newAuthenticator(cfg config.AuthSettings, log *slog.Logger, kf jwt.Keyfunc, methods []string) *JWTAuthenticator {
	auth := &JWTAuthenticator{
		cfg:        cfg,
		log:        log,
		keyFunc:    kf,
		methods:    methods,
		bypassPath: make(map[string]struct{}),
	}
	for _, path := range cfg.BypassPaths {
		if path != "" {
			auth.bypassPath[path] = struct{}{}
		}
	}
	return auth
}

// VerifyIdentity implements identity.Verifier.
func (a *JWTAuthenticator) VerifyIdentity(ctx context.Context, tokenString string) (identity.User, error) {
	if a.keyFunc == nil {
		return identity.User{}, fmt.Errorf("%w: verifier not configured", identity.ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods(a.methods),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.IssuerURI != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.IssuerURI))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}

	claims := &userClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, a.keyFunc, opts...)
	if err != nil || !token.Valid {
		return identity.User{}, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	id := claims.Subject
	if id == "" {
		id = claims.UserID
	}
	if id == "" {
		return identity.User{}, fmt.Errorf("%w: token carries no subject", identity.ErrInvalidToken)
	}

	return identity.User{ID: id, Email: claims.Email, Name: claims.Name}, nil
}

// Middleware resolves the caller of every non-bypassed request and stores it
// in the request context. With auth disabled the configured dev user is injected.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shouldBypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !a.cfg.Enabled {
			user := identity.User{ID: a.cfg.DevUserID}
			noteUser(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ctxutil.WithUser(r.Context(), user)))
			return
		}

		tokenString, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{err.Error()}, a.log)
			return
		}

		user, err := a.VerifyIdentity(r.Context(), tokenString)
		if err != nil {
			a.log.Warn("token validation failed",
				"error", err,
				"correlation_id", ctxutil.GetCorrelationID(r.Context()),
			)
			httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"Invalid or expired token"}, a.log)
			return
		}

		noteUser(r.Context(), user.ID)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithUser(r.Context(), user)))
	})
}

// Close stops background JWKS refreshers.
func (a *JWTAuthenticator) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *JWTAuthenticator) shouldBypass(path string) bool {
	_, ok := a.bypassPath[path]
	return ok
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}
