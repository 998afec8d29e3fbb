package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Kariqs/eden-store-api/initializers"
	"github.com/Kariqs/eden-store-api/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens a private in-memory database with the full schema.
func newTestStore(t *testing.T) *Store {
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
	return NewStore(db)
}

func testAddress() models.Address {
	return models.Address{Street: "1 Main St", City: "Nairobi", State: "NBO", PostalCode: "00100", Country: "KE"}
}

func seedUser(t *testing.T, s *Store, email string, role models.UserRole) *models.User {
	t.Helper()
	u, err := models.NewUser(email, "", role)
	require.NoError(t, err)
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, s *Store, seller *models.User, title, price string, stock int, category string) *models.Product {
	t.Helper()
	var sellerID *uuid.UUID
	if seller != nil {
		sellerID = &seller.ID
	}
	p, err := models.NewProduct(sellerID, models.ProductInput{
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Category:    category,
	})
	require.NoError(t, err)
	require.NoError(t, s.Products.Create(context.Background(), p))
	return p
}

func seedOrder(t *testing.T, s *Store, customer models.Customer, lines map[*models.Product]int) *models.Order {
	t.Helper()
	o, err := models.NewOrder(customer, testAddress(), nil, "")
	require.NoError(t, err)
	for p, qty := range lines {
		item, err := models.NewOrderItem(p, qty)
		require.NoError(t, err)
		o.AddItem(*item)
	}
	require.NoError(t, s.Orders.Create(context.Background(), o))
	return o
}

func TestStoreTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		u, err := models.NewUser("rollback@example.com", "", models.RoleCustomer)
		require.NoError(t, err)
		require.NoError(t, tx.Users.Create(ctx, u))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Users.ExistsByEmail(ctx, "rollback@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreTransactionCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var id uuid.UUID
	err := s.Transaction(ctx, func(tx *Store) error {
		u, err := models.NewUser("commit@example.com", "", models.RoleCustomer)
		if err != nil {
			return err
		}
		id = u.ID
		return tx.Users.Create(ctx, u)
	})
	require.NoError(t, err)

	found, err := s.Users.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "commit@example.com", found.EmailAddress())
}

func TestUserRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "jane@example.com", models.RoleCustomer)

	dup, err := models.NewUser("jane@example.com", "", models.RoleCustomer)
	require.NoError(t, err)
	err = s.Users.Create(ctx, dup)
	assert.True(t, models.IsConflict(err))

	found, err := s.Users.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)

	missing, err := s.Users.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	found.FirstName = "Jane"
	require.NoError(t, s.Users.Update(ctx, found))
	reloaded, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", reloaded.FirstName)

	seedUser(t, s, "zed@example.com", models.RoleSeller)
	page, err := s.Users.List(ctx, PageRequest{Size: 1, Sort: []SortField{{Field: "email"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "jane@example.com", page.Content[0].EmailAddress())

	require.NoError(t, s.Users.Delete(ctx, u.ID))
	gone, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestNewPage(t *testing.T) {
	page := NewPage([]int{1, 2}, 5, PageRequest{Page: 1, Size: 2})
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	assert.Equal(t, 1, page.Number)

	empty := NewPage[int](nil, 0, PageRequest{Page: -3, Size: 1000})
	assert.Equal(t, []int{}, empty.Content)
	assert.Equal(t, MaxPageSize, empty.Size)
	assert.Equal(t, 0, empty.Number)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrevious)
}
