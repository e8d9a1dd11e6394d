package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerline/payflow/internal/processor/domain"
)

const (
	defaultBaseURL = "https://api.stripe.com"
	defaultTimeout = 12 * time.Second
)

type ClientConfig struct {
	APIKey     string
	APIVersion string
	BaseURL    string

	// Timeout is consulted per request so a config reload takes effect
	// without rebuilding the client. nil means the default.
	Timeout func() time.Duration
}

type Client struct {
	apiKey     string
	apiVersion string
	baseURL    string
	timeout    func() time.Duration
	client     *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == nil {
		timeout = func() time.Duration { return defaultTimeout }
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		apiVersion: strings.TrimSpace(cfg.APIVersion),
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		client:     &http.Client{},
	}
}

type stripeCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type stripeEphemeralKey struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

type stripePaymentMethod struct {
	ID   string `json:"id"`
	Card struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int64  `json:"exp_month"`
		ExpYear  int64  `json:"exp_year"`
	} `json:"card"`
}

type stripeList struct {
	Data []stripePaymentMethod `json:"data"`
}

type stripeErrorResponse struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
		Message     string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (domain.Customer, error) {
	values := url.Values{}
	values.Set("email", email)
	for key, value := range metadata {
		values.Set("metadata["+key+"]", value)
	}

	var customer stripeCustomer
	if err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, requestOptions{}, &customer); err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{ID: customer.ID, Email: customer.Email}, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, params domain.IntentParams) (domain.Intent, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(params.Amount, 10))
	values.Set("currency", strings.ToLower(params.Currency))
	values.Set("customer", params.CustomerID)
	values.Set("automatic_payment_methods[enabled]", "false")
	values.Set("payment_method_types[]", "card")
	if params.PaymentMethodID != "" {
		values.Set("payment_method", params.PaymentMethodID)
	}
	if params.Confirm {
		values.Set("confirm", "true")
	}
	if params.OffSession {
		values.Set("off_session", "true")
	}
	if params.SetupFutureUsage != "" {
		values.Set("setup_future_usage", params.SetupFutureUsage)
	}
	for key, value := range params.Metadata {
		values.Set("metadata["+key+"]", value)
	}

	var intent stripeIntent
	opts := requestOptions{idempotencyKey: params.IdempotencyKey}
	if err := c.doRequest(ctx, http.MethodPost, "/v1/payment_intents", values, opts, &intent); err != nil {
		return domain.Intent{}, err
	}
	return domain.Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       intent.Status,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}

func (c *Client) CreateEphemeralKey(ctx context.Context, customerID string, apiVersion string) (domain.EphemeralKey, error) {
	values := url.Values{}
	values.Set("customer", customerID)

	var key stripeEphemeralKey
	opts := requestOptions{apiVersion: apiVersion}
	if err := c.doRequest(ctx, http.MethodPost, "/v1/ephemeral_keys", values, opts, &key); err != nil {
		return domain.EphemeralKey{}, err
	}
	return domain.EphemeralKey{ID: key.ID, Secret: key.Secret}, nil
}

func (c *Client) ListPaymentMethods(ctx context.Context, customerID string, methodType string) ([]domain.PaymentMethod, error) {
	if methodType == "" {
		methodType = "card"
	}
	path := "/v1/payment_methods?customer=" + url.QueryEscape(customerID) + "&type=" + url.QueryEscape(methodType)

	var list stripeList
	if err := c.doRequest(ctx, http.MethodGet, path, nil, requestOptions{}, &list); err != nil {
		return nil, err
	}

	methods := make([]domain.PaymentMethod, 0, len(list.Data))
	for _, item := range list.Data {
		methods = append(methods, domain.PaymentMethod{
			ID:       item.ID,
			Brand:    item.Card.Brand,
			Last4:    item.Card.Last4,
			ExpMonth: item.Card.ExpMonth,
			ExpYear:  item.Card.ExpYear,
		})
	}
	return methods, nil
}

func (c *Client) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	path := "/v1/payment_methods/" + url.PathEscape(paymentMethodID) + "/detach"
	var method stripePaymentMethod
	return c.doRequest(ctx, http.MethodPost, path, url.Values{}, requestOptions{}, &method)
}

type requestOptions struct {
	idempotencyKey string
	apiVersion     string
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	opts requestOptions,
	dest any,
) error {
	if c.apiKey == "" {
		return domain.ErrInvalidConfig
	}

	timeout := c.timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}
	apiVersion := opts.apiVersion
	if apiVersion == "" {
		apiVersion = c.apiVersion
	}
	if apiVersion != "" {
		req.Header.Set("Stripe-Version", apiVersion)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &domain.APIError{StatusCode: resp.StatusCode}
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err == nil {
			apiErr.Type = stripeErr.Error.Type
			apiErr.Code = stripeErr.Error.Code
			apiErr.DeclineCode = stripeErr.Error.DeclineCode
			apiErr.Message = strings.TrimSpace(stripeErr.Error.Message)
		}
		if apiErr.Message == "" {
			apiErr.Message = "request failed"
		}
		return apiErr
	}

	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
