package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/pkg/ctxutil"
)

type revocationStore interface {
	Revoke(ctx context.Context, jti string, accountID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Provider is the authentication provider consumed by the dashboard: it
// resolves the current session from the request token and signs out.
type Provider struct {
	log     *slog.Logger
	jwt     *JWTManager
	revoked revocationStore
}

// NewProvider creates a new auth provider.
func NewProvider(logger *slog.Logger, jwt *JWTManager, revoked revocationStore) *Provider {
	return &Provider{
		log:     logger.With("service", "auth"),
		jwt:     jwt,
		revoked: revoked,
	}
}

// ValidateToken checks signature, expiry and revocation, returning the
// account id. It is used by the HTTP auth middleware.
func (p *Provider) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := p.claims(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.AccountID, nil
}

// GetSession returns the identity behind the token carried by ctx.
// Returns domain.ErrNoSession when ctx carries no token.
func (p *Provider) GetSession(ctx context.Context) (domain.Account, error) {
	token := ctxutil.TokenFromCtx(ctx)
	if token == "" {
		return domain.Account{}, domain.ErrNoSession
	}

	claims, err := p.claims(ctx, token)
	if err != nil {
		return domain.Account{}, err
	}

	return domain.Account{AccountID: claims.AccountID, Email: claims.Email}, nil
}

// SignOut revokes the token carried by ctx. Idempotent.
func (p *Provider) SignOut(ctx context.Context) error {
	token := ctxutil.TokenFromCtx(ctx)
	if token == "" {
		return domain.ErrNoSession
	}

	claims, err := p.jwt.ValidateAccessToken(token)
	if err != nil {
		// An unusable token is as good as signed out.
		return nil
	}

	if err := p.revoked.Revoke(ctx, claims.JTI, claims.AccountID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("auth.SignOut: %w", err)
	}

	p.log.InfoContext(ctx, "signed out", slog.String("account_id", claims.AccountID.String()))
	return nil
}

func (p *Provider) claims(ctx context.Context, token string) (Claims, error) {
	claims, err := p.jwt.ValidateAccessToken(token)
	if err != nil {
		return Claims{}, err
	}

	revoked, err := p.revoked.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return Claims{}, fmt.Errorf("auth: check revocation: %w", err)
	}
	if revoked {
		return Claims{}, fmt.Errorf("token revoked: %w", domain.ErrNoSession)
	}
	return claims, nil
}
