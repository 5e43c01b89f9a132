package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/jetemi/ng-pycon/internal/config"
	"github.com/jetemi/ng-pycon/internal/logger"
	"github.com/jetemi/ng-pycon/internal/models"
)

// Client talks to the Paystack REST API. Every call is bounded by the
// configured timeout; a call that does not finish in time is treated as a
// failed verification, never as a success.
type Client struct {
	secretKey string
	baseURL   string
	timeout   time.Duration
	client    *http.Client
	logger    *logger.Logger
}

func NewClient(cfg config.PaystackConfig, httpClient *http.Client, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		timeout:   timeout,
		client:    httpClient,
		logger:    log,
	}
}

// VerifyTransaction asks the gateway whether the charge behind reference
// actually succeeded. The returned amount is converted from kobo.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*models.VerifiedPayment, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrVerificationFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, reference)
	c.logger.LogPayment("VERIFY", reference, fmt.Sprintf("GET %s", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			c.logger.Error("PAYMENT", fmt.Sprintf("Verification timed out for %s: %v", reference, err))
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		c.logger.Error("PAYMENT", fmt.Sprintf("Verification request failed for %s: %v", reference, err))
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Error("PAYMENT", fmt.Sprintf("Failed to close verify response body: %v", cerr))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("PAYMENT", fmt.Sprintf("Verification for %s returned status %d", reference, resp.StatusCode))
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var result models.PaystackVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrVerificationFailed, err)
	}

	if !result.Status || result.Data.Status != "success" {
		c.logger.Warn("PAYMENT", fmt.Sprintf("Transaction %s not successful: %s", reference, result.Message))
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, result.Message)
	}

	c.logger.LogPayment("VERIFIED", reference, fmt.Sprintf("amount=%d kobo channel=%s", result.Data.Amount, result.Data.Channel))

	return &models.VerifiedPayment{
		Reference: result.Data.Reference,
		Amount:    float64(result.Data.Amount) / 100,
		Currency:  result.Data.Currency,
		Channel:   result.Data.Channel,
		PaidAt:    result.Data.PaidAt,
	}, nil
}

// InitializeTransaction registers a pending charge and returns the hosted
// checkout details. Amount is in major units and crosses the wire in kobo.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amount float64, reference, callbackURL string) (*models.PaystackInitializeData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := models.PaystackInitializeRequest{
		Email:       email,
		Amount:      int64(math.Round(amount * 100)),
		Reference:   reference,
		CallbackURL: callbackURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	url := c.baseURL + "/transaction/initialize"
	c.logger.LogPayment("INITIALIZE", reference, fmt.Sprintf("POST %s amount=%d kobo", url, payload.Amount))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("initialize request failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Error("PAYMENT", fmt.Sprintf("Failed to close initialize response body: %v", cerr))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("initialize returned status %d", resp.StatusCode)
	}

	var result models.PaystackInitializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}
	if !result.Status {
		return nil, fmt.Errorf("initialize rejected: %s", result.Message)
	}

	return &result.Data, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
