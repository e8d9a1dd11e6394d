package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgerline/payflow/internal/processor/domain"
)

func TestCreatePaymentIntentSendsFormAndHeaders(t *testing.T) {
	var gotPath, gotAuth, gotIdem, gotVersion string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("Idempotency-Key")
		gotVersion = r.Header.Get("Stripe-Version")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","amount":2500,"currency":"usd"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		APIKey:     "sk_test",
		APIVersion: "2022-08-01",
		BaseURL:    srv.URL,
	})

	intent, err := client.CreatePaymentIntent(context.Background(), domain.IntentParams{
		Amount:           2500,
		Currency:         "USD",
		CustomerID:       "cus_1",
		PaymentMethodID:  "pm_1",
		Confirm:          true,
		OffSession:       true,
		SetupFutureUsage: "off_session",
		Metadata:         map[string]string{"product_id": "prod_1"},
		IdempotencyKey:   "idem-1",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" {
		t.Fatalf("unexpected intent %+v", intent)
	}

	if gotPath != "/v1/payment_intents" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotIdem != "idem-1" {
		t.Fatalf("unexpected idempotency key %q", gotIdem)
	}
	if gotVersion != "2022-08-01" {
		t.Fatalf("unexpected api version %q", gotVersion)
	}

	expect := map[string]string{
		"amount":                             "2500",
		"currency":                           "usd",
		"customer":                           "cus_1",
		"payment_method":                     "pm_1",
		"confirm":                            "true",
		"off_session":                        "true",
		"setup_future_usage":                 "off_session",
		"automatic_payment_methods[enabled]": "false",
		"payment_method_types[]":             "card",
		"metadata[product_id]":               "prod_1",
	}
	for key, want := range expect {
		values := gotForm[key]
		if len(values) != 1 || values[0] != want {
			t.Fatalf("form field %q = %v, want %q", key, values, want)
		}
	}
}

func TestClientTimeoutFollowsConfigReload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cus_1","email":"a@example.test"}`))
	}))
	defer srv.Close()

	timeout := 5 * time.Second
	client := NewClient(ClientConfig{
		APIKey:  "sk_test",
		BaseURL: srv.URL,
		Timeout: func() time.Duration { return timeout },
	})

	if _, err := client.CreateCustomer(context.Background(), "a@example.test", nil); err != nil {
		t.Fatalf("request inside timeout: %v", err)
	}

	// A tighter timeout applies to the next request on the same client.
	timeout = 50 * time.Millisecond
	if _, err := client.CreateCustomer(context.Background(), "a@example.test", nil); err == nil {
		t.Fatal("expected request to exceed the reloaded timeout")
	}
}

func TestDeclineErrorPreservesDeclineCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds","message":"Your card has insufficient funds."}}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{APIKey: "sk_test", BaseURL: srv.URL})
	_, err := client.CreatePaymentIntent(context.Background(), domain.IntentParams{
		Amount:   900,
		Currency: "usd",
	})

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.Declined() {
		t.Fatalf("expected decline, got %+v", apiErr)
	}
	if apiErr.DeclineCode != "insufficient_funds" {
		t.Fatalf("unexpected decline code %q", apiErr.DeclineCode)
	}
	if domain.IsTransient(apiErr) {
		t.Fatalf("a decline must not look transient")
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{APIKey: "sk_test", BaseURL: srv.URL})
	_, err := client.CreateCustomer(context.Background(), "a@b.test", nil)
	if !domain.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestEphemeralKeyVersionOverride(t *testing.T) {
	var gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("Stripe-Version")
		_, _ = w.Write([]byte(`{"id":"ephkey_1","secret":"ek_test_secret"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{APIKey: "sk_test", APIVersion: "2020-08-27", BaseURL: srv.URL})
	key, err := client.CreateEphemeralKey(context.Background(), "cus_1", "2022-08-01")
	if err != nil {
		t.Fatalf("create ephemeral key: %v", err)
	}
	if key.Secret != "ek_test_secret" {
		t.Fatalf("unexpected secret %q", key.Secret)
	}
	if gotVersion != "2022-08-01" {
		t.Fatalf("expected per-request version override, got %q", gotVersion)
	}
}

func TestListPaymentMethods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("customer") != "cus_1" || r.URL.Query().Get("type") != "card" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"pm_1","card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030}}]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{APIKey: "sk_test", BaseURL: srv.URL})
	methods, err := client.ListPaymentMethods(context.Background(), "cus_1", "")
	if err != nil {
		t.Fatalf("list payment methods: %v", err)
	}
	if len(methods) != 1 || methods[0].Last4 != "4242" || methods[0].Brand != "visa" {
		t.Fatalf("unexpected methods %+v", methods)
	}
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(ClientConfig{})
	_, err := client.CreateCustomer(context.Background(), "a@b.test", nil)
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}
