// Package issuertoken signs and validates the bearer tokens that authorize
// calls to the issuance API.
package issuertoken

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/platform/middleware/auth"
	"credo/pkg/requestcontext"
)

const (
	DefaultIssuer   = "credo"
	DefaultAudience = "credo-issuance"
	DefaultTTL      = 12 * time.Hour
)

// Claims are the claims carried by an issuer token.
type Claims struct {
	Account string `json:"account"`
	jwt.RegisteredClaims
}

type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewService(signingKey string, issuer string, audience string, tokenTTL time.Duration) *Service {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if audience == "" {
		audience = DefaultAudience
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTTL
	}
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// Generate signs a token for account and returns it with its JTI.
func (s *Service) Generate(ctx context.Context, account id.Account) (string, string, error) {
	if account.IsNil() {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	if len(s.signingKey) == 0 {
		return "", "", dErrors.New(dErrors.CodeNotConfigured, "signing key is not configured")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	jti := hex.EncodeToString(b)
	now := requestcontext.Now(ctx)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Account: account.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Adapter exposes Service to the auth middleware.
type Adapter struct {
	service *Service
}

func NewAdapter(service *Service) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.JWTClaims{Account: claims.Account, JTI: claims.ID}, nil
}

// Denylist holds revoked token IDs.
type Denylist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewDenylist builds a denylist from a comma separated list of JTIs.
func NewDenylist(csv string) *Denylist {
	d := &Denylist{ids: make(map[string]struct{})}
	for _, jti := range strings.Split(csv, ",") {
		d.Revoke(jti)
	}
	return d
}

func (d *Denylist) Revoke(jti string) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return
	}
	d.mu.Lock()
	d.ids[jti] = struct{}{}
	d.mu.Unlock()
}

func (d *Denylist) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.ids[jti]
	return ok, nil
}
