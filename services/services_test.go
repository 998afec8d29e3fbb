package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/Kariqs/eden-store-api/fulfillment"
	"github.com/Kariqs/eden-store-api/initializers"
	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/payments"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *repositories.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, initializers.SyncDatabase(db))
	return repositories.NewStore(db)
}

func testAddress() models.Address {
	return models.Address{Street: "1 Main St", City: "Nairobi", State: "NBO", PostalCode: "00100", Country: "KE"}
}

func seedUser(t *testing.T, store *repositories.Store, email string, role models.UserRole) *models.User {
	t.Helper()
	u, err := models.NewUser(email, "", role)
	require.NoError(t, err)
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, store *repositories.Store, title, price string, stock int) *models.Product {
	t.Helper()
	p, err := models.NewProduct(nil, models.ProductInput{
		Title: title,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	require.NoError(t, store.Products.Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, store *repositories.Store, id uuid.UUID) int {
	t.Helper()
	p, err := store.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

type sentMail struct {
	orderID uuid.UUID
	subject string
}

type recordingNotifier struct {
	sent []sentMail
	err  error
}

func (n *recordingNotifier) SendOrderEmail(_ context.Context, order *models.Order, subject, _ string) error {
	n.sent = append(n.sent, sentMail{orderID: order.ID, subject: subject})
	return n.err
}

func (n *recordingNotifier) subjects() []string {
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.subject)
	}
	return out
}

type fakeTracker struct {
	report *fulfillment.TrackingReport
	err    error
}

func (f *fakeTracker) Track(context.Context, string, string) (*fulfillment.TrackingReport, error) {
	return f.report, f.err
}

type fakeGateway struct {
	report *payments.PaymentReport
}

func (f *fakeGateway) TransactionStatus(_ context.Context, id string) (*payments.PaymentReport, error) {
	if f.report == nil {
		return nil, errors.New("gateway unavailable")
	}
	r := *f.report
	r.GatewayPaymentID = id
	return &r, nil
}

// countingCache memoizes categories until invalidated.
type countingCache struct {
	categories  []string
	loads       int
	invalidated int
}

func (c *countingCache) Categories(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	if c.categories != nil {
		return c.categories, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.loads++
	c.categories = v
	return v, nil
}

func (c *countingCache) Featured(ctx context.Context, load func(context.Context) ([]models.Product, error)) ([]models.Product, error) {
	return load(ctx)
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidated++
	c.categories = nil
	return nil
}

type fakeUploader struct {
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, productID uuid.UUID, filename, _ string, body io.Reader) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.calls++
	return fmt.Sprintf("https://cdn.example.com/products/%s/%s", productID, filename), nil
}
