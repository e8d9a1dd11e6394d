package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
)

// Resolver turns an Authorization header into the caller's Account. Auth
// failure and missing account are distinct internally but are collapsed to
// one client-facing rejection at the HTTP boundary.
type Resolver struct {
	log      *zap.Logger
	verifier *Verifier
	accounts accountdomain.Service
}

func NewResolver(log *zap.Logger, verifier *Verifier, accounts accountdomain.Service) *Resolver {
	return &Resolver{
		log:      log.Named("auth.resolver"),
		verifier: verifier,
		accounts: accounts,
	}
}

func (r *Resolver) Resolve(ctx context.Context, authorization string) (accountdomain.Account, error) {
	token, ok := bearerToken(authorization)
	if !ok {
		return accountdomain.Account{}, ErrUnauthenticated
	}

	subject, err := r.verifier.Subject(token)
	if err != nil {
		return accountdomain.Account{}, ErrUnauthenticated
	}

	account, err := r.accounts.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, accountdomain.ErrNotFound) {
			r.log.Warn("verified subject has no account", zap.String("subject", subject))
			return accountdomain.Account{}, accountdomain.ErrNotFound
		}
		return accountdomain.Account{}, err
	}
	return account, nil
}

func bearerToken(authorization string) (string, bool) {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return "", false
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
