package chapa

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-rental-api/internal/config"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-resty/resty/v2"
)

// Customer is the payer shown on the hosted checkout page.
type Customer struct {
	Email     string
	FirstName string
	LastName  string
}

// InitializeRequest describes one hosted checkout.
type InitializeRequest struct {
	Amount      int
	Currency    string
	TxRef       string
	Customer    Customer
	CallbackURL string
	ReturnURL   string
	Title       string
	Description string
}

type customization struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type initializeBody struct {
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	TxRef         string        `json:"tx_ref"`
	CallbackURL   string        `json:"callback_url"`
	ReturnURL     string        `json:"return_url"`
	Customization customization `json:"customization"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Status string `json:"status"`
		TxRef  string `json:"tx_ref"`
	} `json:"data"`
}

// Client talks to the Chapa payment gateway.
type Client struct {
	http *resty.Client
}

// NewClient builds a gateway client with a fixed request timeout.
func NewClient(cfg *config.Config) *Client {
	return newClient(cfg.ChapaBaseURL, cfg.ChapaSecretKey, cfg.ChapaTimeout)
}

func newClient(baseURL, secret string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(secret).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// Initialize opens a hosted checkout and returns the URL to send the payer to.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (string, error) {
	first, last := req.Customer.FirstName, req.Customer.LastName
	if first == "" {
		first = "User"
	}
	if last == "" {
		last = "Customer"
	}
	var out initializeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(initializeBody{
			Amount:      strconv.Itoa(req.Amount),
			Currency:    req.Currency,
			Email:       req.Customer.Email,
			FirstName:   first,
			LastName:    last,
			TxRef:       req.TxRef,
			CallbackURL: req.CallbackURL,
			ReturnURL:   req.ReturnURL,
			Customization: customization{
				Title:       req.Title,
				Description: req.Description,
			},
		}).
		SetResult(&out).
		Post("/v1/transaction/initialize")
	if err != nil {
		return "", fmt.Errorf("chapa initialize: %v: %w", err, domain.ErrUpstream)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chapa initialize: status %d: %s: %w", resp.StatusCode(), resp.String(), domain.ErrUpstream)
	}
	if out.Data.CheckoutURL == "" {
		return "", fmt.Errorf("chapa initialize: missing checkout url: %w", domain.ErrUpstream)
	}
	return out.Data.CheckoutURL, nil
}

// Verify asks the gateway whether txRef was paid. Both the envelope and the
// transaction status must report success.
func (c *Client) Verify(ctx context.Context, txRef string) (bool, error) {
	var out verifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/transaction/verify/" + url.PathEscape(txRef))
	if err != nil {
		return false, fmt.Errorf("chapa verify: %v: %w", err, domain.ErrUpstream)
	}
	if resp.IsError() {
		return false, fmt.Errorf("chapa verify: status %d: %w", resp.StatusCode(), domain.ErrUpstream)
	}
	return out.Status == "success" && out.Data.Status == "success", nil
}
