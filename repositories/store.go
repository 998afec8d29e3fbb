package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// base is embedded by every repository. lock makes single-row reads take a row
// lock, which only matters inside a transaction.
type base struct {
	db   *gorm.DB
	lock bool
}

func (b base) conn(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx)
}

// one prepares a single-row read, locked when the repository was obtained
// from Store.Locking.
func (b base) one(ctx context.Context) *gorm.DB {
	q := b.db.WithContext(ctx)
	if b.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Users     UserRepository
	Products  ProductRepository
	Orders    OrderRepository
	Payments  PaymentRepository
	Shipments ShipmentRepository
	Reviews   ReviewRepository
	Carts     CartRepository
}

func NewStore(db *gorm.DB) *Store {
	return newStore(db, false)
}

func newStore(db *gorm.DB, lock bool) *Store {
	b := base{db: db, lock: lock}
	return &Store{
		db:        db,
		Users:     &userRepository{b},
		Products:  &productRepository{b},
		Orders:    &orderRepository{b},
		Payments:  &paymentRepository{b},
		Shipments: &shipmentRepository{b},
		Reviews:   &reviewRepository{b},
		Carts:     &cartRepository{b},
	}
}

// Transaction runs fn with a Store bound to a single database transaction.
// Single-row reads inside fn take row locks where the dialect supports them.
// Any error returned by fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, true))
	})
}

// DB exposes the underlying connection for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}
