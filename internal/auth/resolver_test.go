package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	"github.com/ledgerline/payflow/internal/config"
)

type accountsStub struct {
	bySubject map[string]accountdomain.Account
}

func (a *accountsStub) Create(ctx context.Context, req accountdomain.CreateAccountRequest) (accountdomain.Account, error) {
	return accountdomain.Account{}, errors.New("not implemented")
}

func (a *accountsStub) GetByID(ctx context.Context, id snowflake.ID) (accountdomain.Account, error) {
	return accountdomain.Account{}, accountdomain.ErrNotFound
}

func (a *accountsStub) GetBySubject(ctx context.Context, subject string) (accountdomain.Account, error) {
	account, ok := a.bySubject[subject]
	if !ok {
		return accountdomain.Account{}, accountdomain.ErrNotFound
	}
	return account, nil
}

func (a *accountsStub) AttachBillingIdentity(ctx context.Context, id snowflake.ID, billingIdentityID string) (bool, error) {
	return false, errors.New("not implemented")
}

const testSecret = "resolver-test-secret"

func newResolver(accounts accountdomain.Service) *Resolver {
	verifier := NewVerifier(config.Config{AuthJWTSecret: testSecret, AuthIssuer: "payflow-test"})
	return NewResolver(zap.NewNop(), verifier, accounts)
}

func TestResolveValidToken(t *testing.T) {
	accounts := &accountsStub{bySubject: map[string]accountdomain.Account{
		"auth0|user-1": {ID: 42, Subject: "auth0|user-1", Email: "user@example.test"},
	}}
	resolver := newResolver(accounts)

	token, err := SignForTest(testSecret, "payflow-test", "auth0|user-1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	account, err := resolver.Resolve(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if account.ID != 42 {
		t.Fatalf("unexpected account %+v", account)
	}
}

func TestResolveRejections(t *testing.T) {
	accounts := &accountsStub{bySubject: map[string]accountdomain.Account{
		"auth0|user-1": {ID: 42, Subject: "auth0|user-1"},
	}}
	resolver := newResolver(accounts)

	wrongKey, err := SignForTest("other-secret", "payflow-test", "auth0|user-1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	expired, err := SignForTest(testSecret, "payflow-test", "auth0|user-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	wrongIssuer, err := SignForTest(testSecret, "someone-else", "auth0|user-1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong key", "Bearer " + wrongKey},
		{"expired", "Bearer " + expired},
		{"wrong issuer", "Bearer " + wrongIssuer},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), tc.header)
			if !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected unauthenticated, got %v", err)
			}
		})
	}

	// Verified token without a local account is a distinct internal error.
	orphan, err := SignForTest(testSecret, "payflow-test", "auth0|orphan", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = resolver.Resolve(context.Background(), "Bearer "+orphan)
	if !errors.Is(err, accountdomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
