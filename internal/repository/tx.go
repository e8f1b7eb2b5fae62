package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrStaleTransition indicates a conditional status update matched no row because the record moved on.
	ErrStaleTransition = errors.New("record is no longer in the expected state")
	// ErrInsufficientPoints indicates a used-points credit would overdraw the society balance.
	ErrInsufficientPoints = errors.New("insufficient remaining points")
)

// Transactor runs a unit of work inside a database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor wraps a GORM handle as a Transactor.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// Page narrows list queries to a window.
type Page struct {
	Page     int
	PageSize int
}

// Offset returns the zero-based row offset of the page.
func (p Page) Offset() int {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * p.PageSize
}

func paginate(query *gorm.DB, page Page) *gorm.DB {
	if page.PageSize <= 0 {
		return query
	}
	return query.Offset(page.Offset()).Limit(page.PageSize)
}

func countAndFind[T any](query *gorm.DB, page Page, order string, preloads ...string) ([]T, int64, error) {
	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	findQuery := query.Session(&gorm.Session{})
	for _, association := range preloads {
		findQuery = findQuery.Preload(association)
	}

	var items []T
	if err := paginate(findQuery, page).Order(order).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
