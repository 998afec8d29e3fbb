// Package services holds the operations that change more than one row at a
// time. Every status change of an order, its payment or its shipment goes
// through OrderService.
package services

import (
	"context"
	"io"

	"github.com/Kariqs/eden-store-api/fulfillment"
	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/payments"
	"github.com/Kariqs/eden-store-api/utils"
	"github.com/google/uuid"
)

// Notifier sends customer-facing order mail.
type Notifier interface {
	SendOrderEmail(ctx context.Context, order *models.Order, subject, message string) error
}

// Tracker reports a parcel's current carrier status.
type Tracker interface {
	Track(ctx context.Context, carrier, trackingNumber string) (*fulfillment.TrackingReport, error)
}

// PaymentGateway reports a transaction's status at the payment provider.
type PaymentGateway interface {
	TransactionStatus(ctx context.Context, gatewayPaymentID string) (*payments.PaymentReport, error)
}

// CatalogCache caches catalog reads that every storefront page needs.
type CatalogCache interface {
	Categories(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error)
	Featured(ctx context.Context, load func(context.Context) ([]models.Product, error)) ([]models.Product, error)
	Invalidate(ctx context.Context) error
}

// ImageUploader stores a product image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, productID uuid.UUID, filename, contentType string, body io.Reader) (string, error)
}

type deps struct {
	logger   utils.Logger
	notifier Notifier
	cache    CatalogCache
	tracker  Tracker
	gateway  PaymentGateway
	images   ImageUploader
}

// Option configures the optional collaborators of a service.
type Option func(*deps)

func WithLogger(logger utils.Logger) Option {
	return func(d *deps) { d.logger = logger }
}

func WithNotifier(n Notifier) Option {
	return func(d *deps) { d.notifier = n }
}

func WithCatalogCache(c CatalogCache) Option {
	return func(d *deps) { d.cache = c }
}

func WithTracker(t Tracker) Option {
	return func(d *deps) { d.tracker = t }
}

func WithPaymentGateway(g PaymentGateway) Option {
	return func(d *deps) { d.gateway = g }
}

func WithImageUploader(u ImageUploader) Option {
	return func(d *deps) { d.images = u }
}

func newDeps(opts []Option) deps {
	d := deps{logger: utils.NoOpLogger{}, cache: uncached{}}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// notify sends mail after a commit. Failures are logged, never returned.
func (d deps) notify(ctx context.Context, order *models.Order, subject, message string) {
	if d.notifier == nil || order == nil {
		return
	}
	if err := d.notifier.SendOrderEmail(ctx, order, subject, message); err != nil {
		d.logger.Warn("Order notification not sent", map[string]interface{}{
			"order_id": order.ID.String(),
			"subject":  subject,
			"error":    err.Error(),
		})
	}
}

func (d deps) invalidateCatalog(ctx context.Context) {
	if err := d.cache.Invalidate(ctx); err != nil {
		d.logger.Warn("Catalog cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}

type uncached struct{}

func (uncached) Categories(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	return load(ctx)
}

func (uncached) Featured(ctx context.Context, load func(context.Context) ([]models.Product, error)) ([]models.Product, error) {
	return load(ctx)
}

func (uncached) Invalidate(context.Context) error { return nil }
