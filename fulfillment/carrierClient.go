package fulfillment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/go-resty/resty/v2"
)

// TrackingReport is the carrier's current view of one parcel.
type TrackingReport struct {
	TrackingNumber    string
	Carrier           string
	Status            models.ShipmentStatus
	EstimatedDelivery *time.Time
	Events            []models.TrackingEvent
}

// Latest returns the most recent event, or one synthesized from the overall
// status when the carrier sent no scans.
func (r *TrackingReport) Latest() models.TrackingEvent {
	var latest *models.TrackingEvent
	for i := range r.Events {
		if r.Events[i].Status != r.Status {
			continue
		}
		if latest == nil || r.Events[i].OccurredAt.After(latest.OccurredAt) {
			latest = &r.Events[i]
		}
	}
	if latest != nil {
		return *latest
	}
	return models.TrackingEvent{Status: r.Status, Description: "status reported by " + r.Carrier}
}

type trackingEventDTO struct {
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type trackingResponse struct {
	TrackingNumber    string             `json:"tracking_number"`
	Carrier           string             `json:"carrier"`
	Status            string             `json:"status"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery"`
	Events            []trackingEventDTO `json:"events"`
}

type CarrierOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// CarrierClient reads tracking status from the carrier aggregation API.
type CarrierClient struct {
	client *resty.Client
}

func NewCarrierClient(opts CarrierOptions) *CarrierClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(4*opts.RetryWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}
	return &CarrierClient{client: client}
}

// Track fetches the latest report for trackingNumber. An unknown parcel is
// ErrNotFound and a status the store does not model is a validation error.
func (c *CarrierClient) Track(ctx context.Context, carrier, trackingNumber string) (*TrackingReport, error) {
	const op = "CarrierClient.Track"
	carrier = strings.TrimSpace(carrier)
	trackingNumber = strings.TrimSpace(trackingNumber)
	if carrier == "" {
		return nil, models.NewValidationError(op, "carrier", "carrier is required")
	}
	if trackingNumber == "" {
		return nil, models.NewValidationError(op, "trackingNumber", "tracking number is required")
	}

	var body trackingResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"carrier": strings.ToLower(carrier),
			"number":  trackingNumber,
		}).
		SetResult(&body).
		Get("/v1/carriers/{carrier}/tracking/{number}")
	if err != nil {
		return nil, fmt.Errorf("carrier tracking request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, models.NewNotFoundError(op, "tracking number", trackingNumber)
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("carrier tracking request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	status, err := MapCarrierStatus(body.Status)
	if err != nil {
		return nil, err
	}
	report := &TrackingReport{
		TrackingNumber:    trackingNumber,
		Carrier:           carrier,
		Status:            status,
		EstimatedDelivery: body.EstimatedDelivery,
	}
	for _, ev := range body.Events {
		st, err := MapCarrierStatus(ev.Status)
		if err != nil {
			return nil, err
		}
		report.Events = append(report.Events, models.TrackingEvent{
			Status:      st,
			Location:    ev.Location,
			Description: ev.Description,
			OccurredAt:  ev.OccurredAt,
		})
	}
	return report, nil
}

var carrierStatuses = map[string]models.ShipmentStatus{
	"PENDING":          models.ShipmentPending,
	"INFO_RECEIVED":    models.ShipmentPending,
	"PRE_TRANSIT":      models.ShipmentLabelCreated,
	"LABEL_CREATED":    models.ShipmentLabelCreated,
	"PICKED_UP":        models.ShipmentInTransit,
	"IN_TRANSIT":       models.ShipmentInTransit,
	"OUT_FOR_DELIVERY": models.ShipmentOutForDelivery,
	"DELIVERED":        models.ShipmentDelivered,
	"FAILED":           models.ShipmentFailed,
	"FAILURE":          models.ShipmentFailed,
	"EXCEPTION":        models.ShipmentFailed,
	"RETURNED":         models.ShipmentFailed,
}

// MapCarrierStatus translates a carrier status code into a ShipmentStatus.
func MapCarrierStatus(code string) (models.ShipmentStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(code))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if st, ok := carrierStatuses[norm]; ok {
		return st, nil
	}
	return "", models.NewValidationError("MapCarrierStatus", "status", fmt.Sprintf("unknown carrier status %q", code))
}
