package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	catalogdomain "github.com/ledgerline/payflow/internal/catalog/domain"
	"github.com/ledgerline/payflow/internal/checkout/domain"
	"github.com/ledgerline/payflow/internal/config"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

type accountsStub struct {
	accounts map[snowflake.ID]accountdomain.Account
	attached map[snowflake.ID]string
}

func (a *accountsStub) Create(ctx context.Context, req accountdomain.CreateAccountRequest) (accountdomain.Account, error) {
	return accountdomain.Account{}, errors.New("not implemented")
}

func (a *accountsStub) GetByID(ctx context.Context, id snowflake.ID) (accountdomain.Account, error) {
	account, ok := a.accounts[id]
	if !ok {
		return accountdomain.Account{}, accountdomain.ErrNotFound
	}
	return account, nil
}

func (a *accountsStub) GetBySubject(ctx context.Context, subject string) (accountdomain.Account, error) {
	return accountdomain.Account{}, accountdomain.ErrNotFound
}

func (a *accountsStub) AttachBillingIdentity(ctx context.Context, id snowflake.ID, billingIdentityID string) (bool, error) {
	if a.attached == nil {
		a.attached = map[snowflake.ID]string{}
	}
	account, ok := a.accounts[id]
	if ok && account.BillingIdentityID != nil {
		return false, nil
	}
	a.attached[id] = billingIdentityID
	if ok {
		account.BillingIdentityID = &billingIdentityID
		a.accounts[id] = account
	}
	return true, nil
}

type catalogFake struct {
	products map[string]*catalogdomain.Product
}

func (c *catalogFake) GetByID(ctx context.Context, id string) (*catalogdomain.Product, error) {
	product, ok := c.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return product, nil
}

func (c *catalogFake) GetActiveByID(ctx context.Context, id string) (*catalogdomain.Product, error) {
	product, err := c.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, catalogdomain.ErrProductInactive
	}
	return product, nil
}

type processorFake struct {
	customers      int
	lastIntent     processordomain.IntentParams
	intentErr      error
	ephemeralCalls int
	lastKeyVersion string
}

func (p *processorFake) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (processordomain.Customer, error) {
	p.customers++
	return processordomain.Customer{ID: "cus_new", Email: email}, nil
}

func (p *processorFake) CreatePaymentIntent(ctx context.Context, params processordomain.IntentParams) (processordomain.Intent, error) {
	p.lastIntent = params
	if p.intentErr != nil {
		return processordomain.Intent{}, p.intentErr
	}
	status := "requires_payment_method"
	if params.Confirm {
		status = processordomain.IntentStatusSucceeded
	}
	return processordomain.Intent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret",
		Status:       status,
		Amount:       params.Amount,
		Currency:     params.Currency,
	}, nil
}

func (p *processorFake) CreateEphemeralKey(ctx context.Context, customerID string, apiVersion string) (processordomain.EphemeralKey, error) {
	p.ephemeralCalls++
	p.lastKeyVersion = apiVersion
	return processordomain.EphemeralKey{ID: "ephkey_1", Secret: "ek_secret"}, nil
}

func (p *processorFake) ListPaymentMethods(ctx context.Context, customerID string, methodType string) ([]processordomain.PaymentMethod, error) {
	return nil, nil
}

func (p *processorFake) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	return nil
}

func provisionedCaller() accountdomain.Account {
	identity := "cus_existing"
	return accountdomain.Account{
		ID:                42,
		Subject:           "auth0|caller",
		Email:             "caller@example.test",
		BillingIdentityID: &identity,
	}
}

func setupCheckout(processor *processorFake, accounts accountdomain.Service) domain.Service {
	if accounts == nil {
		accounts = &accountsStub{}
	}
	return New(Params{
		Log:       zap.NewNop(),
		Accounts:  accounts,
		Catalog:   &catalogFake{products: map[string]*catalogdomain.Product{
			"prod_1": {ID: "prod_1", Name: "Starter Pack", Amount: 1999, Currency: "USD", Active: true},
			"prod_2": {ID: "prod_2", Name: "Retired Pack", Amount: 500, Currency: "USD", Active: false},
		}},
		Processor: processor,
		Holder:    config.NewStaticPaymentsConfigHolder(config.DefaultPaymentsConfig()),
	})
}

func TestCreatePaymentIntentAmountAndMetadata(t *testing.T) {
	processor := &processorFake{}
	service := setupCheckout(processor, nil)

	resp, err := service.CreatePaymentIntent(context.Background(), provisionedCaller(), domain.CreateIntentRequest{
		ProductID: "prod_1",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if resp.ClientSecret != "pi_1_secret" {
		t.Fatalf("unexpected secret %q", resp.ClientSecret)
	}

	params := processor.lastIntent
	if params.Amount != 199900 {
		t.Fatalf("expected amount 199900, got %d", params.Amount)
	}
	if params.Currency != "USD" {
		t.Fatalf("expected currency USD, got %q", params.Currency)
	}
	if params.CustomerID != "cus_existing" {
		t.Fatalf("expected existing billing identity, got %q", params.CustomerID)
	}
	if params.Metadata["product_id"] != "prod_1" || params.Metadata["account_id"] != "42" {
		t.Fatalf("metadata must carry webhook context: %+v", params.Metadata)
	}
	if params.Metadata["product_name"] != "Starter Pack" {
		t.Fatalf("metadata must snapshot the product name: %+v", params.Metadata)
	}
	if params.Confirm || params.OffSession {
		t.Fatalf("plain intent must not confirm: %+v", params)
	}
	if processor.customers != 0 {
		t.Fatalf("provisioned caller must not get a new customer")
	}
}

func TestCreateIntentStampsIdempotencyKey(t *testing.T) {
	processor := &processorFake{}
	service := setupCheckout(processor, nil)
	ctx := context.Background()
	caller := provisionedCaller()

	if _, err := service.CreatePaymentIntent(ctx, caller, domain.CreateIntentRequest{ProductID: "prod_1"}); err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if processor.lastIntent.IdempotencyKey != "intent:42:prod_1" {
		t.Fatalf("unexpected key %q", processor.lastIntent.IdempotencyKey)
	}

	// A retried request produces the identical key, so the processor
	// replays the original intent instead of minting a second one.
	if _, err := service.CreatePaymentIntent(ctx, caller, domain.CreateIntentRequest{ProductID: "prod_1"}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if processor.lastIntent.IdempotencyKey != "intent:42:prod_1" {
		t.Fatalf("retry must reuse the key, got %q", processor.lastIntent.IdempotencyKey)
	}

	if _, err := service.CreatePaymentSheet(ctx, caller, domain.SheetRequest{ProductID: "prod_1"}); err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	if processor.lastIntent.IdempotencyKey != "sheet:42:prod_1" {
		t.Fatalf("sheet flow must key separately, got %q", processor.lastIntent.IdempotencyKey)
	}

	if _, err := service.ChargeOffSession(ctx, caller, domain.OffSessionRequest{ProductID: "prod_1", PaymentMethodID: "pm_1"}); err != nil {
		t.Fatalf("charge: %v", err)
	}
	if processor.lastIntent.IdempotencyKey != "off_session:42:prod_1" {
		t.Fatalf("off-session flow must key separately, got %q", processor.lastIntent.IdempotencyKey)
	}
}

func TestCreatePaymentIntentFutureUsageAndMethod(t *testing.T) {
	processor := &processorFake{}
	service := setupCheckout(processor, nil)

	_, err := service.CreatePaymentIntent(context.Background(), provisionedCaller(), domain.CreateIntentRequest{
		ProductID:        "prod_1",
		PaymentMethodID:  "pm_1",
		AllowFutureUsage: true,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if processor.lastIntent.SetupFutureUsage != "off_session" {
		t.Fatalf("expected setup_future_usage off_session, got %q", processor.lastIntent.SetupFutureUsage)
	}
	if processor.lastIntent.PaymentMethodID != "pm_1" {
		t.Fatalf("expected payment method attached, got %q", processor.lastIntent.PaymentMethodID)
	}
}

func TestCreatePaymentIntentRejectsBadProduct(t *testing.T) {
	service := setupCheckout(&processorFake{}, nil)

	if _, err := service.CreatePaymentIntent(context.Background(), provisionedCaller(), domain.CreateIntentRequest{ProductID: "prod_x"}); !errors.Is(err, catalogdomain.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
	if _, err := service.CreatePaymentIntent(context.Background(), provisionedCaller(), domain.CreateIntentRequest{ProductID: "prod_2"}); !errors.Is(err, catalogdomain.ErrProductInactive) {
		t.Fatalf("expected product inactive, got %v", err)
	}
}

func TestCreatePaymentIntentProvisionsLazily(t *testing.T) {
	processor := &processorFake{}
	caller := accountdomain.Account{ID: 7, Subject: "auth0|new", Email: "new@example.test"}
	accounts := &accountsStub{accounts: map[snowflake.ID]accountdomain.Account{7: caller}}
	service := setupCheckout(processor, accounts)

	_, err := service.CreatePaymentIntent(context.Background(), caller, domain.CreateIntentRequest{ProductID: "prod_1"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if processor.customers != 1 {
		t.Fatalf("expected inline provisioning, got %d customers", processor.customers)
	}
	if accounts.attached[7] != "cus_new" {
		t.Fatalf("expected identity attached, got %q", accounts.attached[7])
	}
	if processor.lastIntent.CustomerID != "cus_new" {
		t.Fatalf("intent must use the new identity, got %q", processor.lastIntent.CustomerID)
	}
}

func TestCreatePaymentSheetIssuesEphemeralKey(t *testing.T) {
	processor := &processorFake{}
	service := setupCheckout(processor, nil)

	resp, err := service.CreatePaymentSheet(context.Background(), provisionedCaller(), domain.SheetRequest{ProductID: "prod_1"})
	if err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	if resp.ClientSecret != "pi_1_secret" || resp.EphemeralKey != "ek_secret" {
		t.Fatalf("unexpected sheet %+v", resp)
	}
	if resp.BillingIdentityID != "cus_existing" {
		t.Fatalf("sheet must return the billing identity, got %q", resp.BillingIdentityID)
	}
	if processor.ephemeralCalls != 1 {
		t.Fatalf("expected one ephemeral key, got %d", processor.ephemeralCalls)
	}
	if processor.lastKeyVersion != config.DefaultPaymentsConfig().EphemeralKeyVersion {
		t.Fatalf("unexpected key version %q", processor.lastKeyVersion)
	}
}

func TestChargeOffSessionConfirmsImmediately(t *testing.T) {
	processor := &processorFake{}
	service := setupCheckout(processor, nil)

	resp, err := service.ChargeOffSession(context.Background(), provisionedCaller(), domain.OffSessionRequest{
		ProductID:       "prod_1",
		PaymentMethodID: "pm_1",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if resp.Status != processordomain.IntentStatusSucceeded {
		t.Fatalf("expected succeeded, got %q", resp.Status)
	}
	if resp.Amount != 199900 {
		t.Fatalf("unexpected amount %d", resp.Amount)
	}
	if !processor.lastIntent.Confirm || !processor.lastIntent.OffSession {
		t.Fatalf("off-session charge must confirm immediately: %+v", processor.lastIntent)
	}
}

func TestChargeOffSessionSurfacesDecline(t *testing.T) {
	decline := &processordomain.APIError{
		StatusCode:  402,
		Type:        "card_error",
		Code:        "card_declined",
		DeclineCode: "insufficient_funds",
		Message:     "Your card has insufficient funds.",
	}
	processor := &processorFake{intentErr: decline}
	service := setupCheckout(processor, nil)

	_, err := service.ChargeOffSession(context.Background(), provisionedCaller(), domain.OffSessionRequest{
		ProductID:       "prod_1",
		PaymentMethodID: "pm_1",
	})

	var apiErr *processordomain.APIError
	if !errors.As(err, &apiErr) || !apiErr.Declined() {
		t.Fatalf("decline detail must reach the caller, got %v", err)
	}
}

func TestChargeOffSessionRequiresPaymentMethod(t *testing.T) {
	service := setupCheckout(&processorFake{}, nil)

	_, err := service.ChargeOffSession(context.Background(), provisionedCaller(), domain.OffSessionRequest{ProductID: "prod_1"})
	if !errors.Is(err, domain.ErrInvalidPaymentMethod) {
		t.Fatalf("expected invalid payment method, got %v", err)
	}
}
