package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	"github.com/ledgerline/payflow/internal/paymentmethod/domain"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

type processorFake struct {
	methods  []processordomain.PaymentMethod
	listErr  error
	detached []string
}

func (p *processorFake) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (processordomain.Customer, error) {
	return processordomain.Customer{}, errors.New("not implemented")
}

func (p *processorFake) CreatePaymentIntent(ctx context.Context, params processordomain.IntentParams) (processordomain.Intent, error) {
	return processordomain.Intent{}, errors.New("not implemented")
}

func (p *processorFake) CreateEphemeralKey(ctx context.Context, customerID string, apiVersion string) (processordomain.EphemeralKey, error) {
	return processordomain.EphemeralKey{}, errors.New("not implemented")
}

func (p *processorFake) ListPaymentMethods(ctx context.Context, customerID string, methodType string) ([]processordomain.PaymentMethod, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.methods, nil
}

func (p *processorFake) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	p.detached = append(p.detached, paymentMethodID)
	return nil
}

func caller(identity string) accountdomain.Account {
	account := accountdomain.Account{ID: 42, Subject: "auth0|caller", Email: "caller@example.test"}
	if identity != "" {
		account.BillingIdentityID = &identity
	}
	return account
}

func TestListWithoutBillingIdentity(t *testing.T) {
	service := New(Params{Log: zap.NewNop(), Processor: &processorFake{}})

	methods, err := service.List(context.Background(), caller(""))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(methods) != 0 {
		t.Fatalf("expected empty list, got %+v", methods)
	}
}

func TestDetachChecksOwnership(t *testing.T) {
	processor := &processorFake{methods: []processordomain.PaymentMethod{
		{ID: "pm_owned", Brand: "visa", Last4: "4242"},
	}}
	service := New(Params{Log: zap.NewNop(), Processor: processor})

	if err := service.Detach(context.Background(), caller("cus_1"), "pm_owned"); err != nil {
		t.Fatalf("detach owned: %v", err)
	}
	if len(processor.detached) != 1 || processor.detached[0] != "pm_owned" {
		t.Fatalf("expected detach call, got %+v", processor.detached)
	}

	err := service.Detach(context.Background(), caller("cus_1"), "pm_other")
	if !errors.Is(err, domain.ErrPaymentMethodNotFound) {
		t.Fatalf("expected not found for foreign method, got %v", err)
	}
	if len(processor.detached) != 1 {
		t.Fatalf("foreign method must not be detached")
	}
}

func TestDetachValidation(t *testing.T) {
	service := New(Params{Log: zap.NewNop(), Processor: &processorFake{}})

	if err := service.Detach(context.Background(), caller("cus_1"), " "); !errors.Is(err, domain.ErrInvalidPaymentMethod) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if err := service.Detach(context.Background(), caller(""), "pm_1"); !errors.Is(err, domain.ErrNoBillingIdentity) {
		t.Fatalf("expected no billing identity, got %v", err)
	}
}
