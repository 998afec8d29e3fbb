package payments

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/go-resty/resty/v2"
)

// PaymentReport is the gateway's view of one transaction.
type PaymentReport struct {
	GatewayPaymentID string
	Status           models.PaymentStatus
	Method           string
	ConfirmationCode string
	Description      string
}

// Settled reports whether the gateway reached a final outcome.
func (r *PaymentReport) Settled() bool {
	return r.Status == models.PaymentSuccess || r.Status == models.PaymentFailed
}

type PesapalOptions struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// PesapalClient queries transaction status from the Pesapal v3 API.
type PesapalClient struct {
	client *resty.Client
	opts   PesapalOptions
}

func NewPesapalClient(opts PesapalOptions) *PesapalClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	return &PesapalClient{client: client, opts: opts}
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *PesapalClient) requestToken(ctx context.Context) (string, error) {
	var body tokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"consumer_key":    c.opts.ConsumerKey,
			"consumer_secret": c.opts.ConsumerSecret,
		}).
		SetResult(&body).
		Post("/api/Auth/RequestToken")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("pesapal token request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if body.Token == "" {
		return "", fmt.Errorf("token not found in response: %s", string(resp.Body()))
	}
	return body.Token, nil
}

type statusResponse struct {
	PaymentStatusDescription string `json:"payment_status_description"`
	PaymentMethod            string `json:"payment_method"`
	ConfirmationCode         string `json:"confirmation_code"`
	Description              string `json:"description"`
	Error                    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// TransactionStatus looks up trackingID, the gateway payment id stored on the
// payment.
func (c *PesapalClient) TransactionStatus(ctx context.Context, trackingID string) (*PaymentReport, error) {
	const op = "PesapalClient.TransactionStatus"
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, models.NewValidationError(op, "stripePaymentId", "gateway payment id is required")
	}

	token, err := c.requestToken(ctx)
	if err != nil {
		return nil, err
	}

	var body statusResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("orderTrackingId", trackingID).
		SetResult(&body).
		Get("/api/Transactions/GetTransactionStatus")
	if err != nil {
		return nil, fmt.Errorf("failed to check payment status: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, models.NewNotFoundError(op, "transaction", trackingID)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("pesapal status request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if body.Error != nil && (body.Error.Code != "" || body.Error.Message != "") {
		return nil, fmt.Errorf("error in transaction response: %s %s", body.Error.Code, body.Error.Message)
	}

	return &PaymentReport{
		GatewayPaymentID: trackingID,
		Status:           MapPaymentStatus(body.PaymentStatusDescription),
		Method:           body.PaymentMethod,
		ConfirmationCode: body.ConfirmationCode,
		Description:      body.Description,
	}, nil
}

// MapPaymentStatus translates the gateway's status description. Anything that
// is neither completed nor failed is still pending.
func MapPaymentStatus(description string) models.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(description)) {
	case "COMPLETED":
		return models.PaymentSuccess
	case "FAILED", "INVALID":
		return models.PaymentFailed
	case "REVERSED":
		return models.PaymentRefunded
	}
	return models.PaymentPending
}
