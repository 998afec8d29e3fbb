package repositories

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortField orders a listing by one column.
type SortField struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// PageRequest selects a zero-based page of a listing.
type PageRequest struct {
	Page int         `json:"page"`
	Size int         `json:"size"`
	Sort []SortField `json:"sort"`
}

// Page is one slice of a listing plus the metadata needed to page through it.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
}

func (r PageRequest) normalized() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

func (r PageRequest) Offset() int {
	n := r.normalized()
	return n.Page * n.Size
}

// NewPage wraps content with totals for request.
func NewPage[T any](content []T, total int64, req PageRequest) Page[T] {
	req = req.normalized()
	if content == nil {
		content = []T{}
	}
	totalPages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          req.Size,
		Number:        req.Page,
		HasNext:       req.Page+1 < totalPages,
		HasPrevious:   req.Page > 0,
	}
}

// sortable maps public sort keys to qualified column names.
type sortable map[string]string

// orderBy builds the ORDER BY clause from the allowed columns. Unknown fields
// are ignored; with nothing usable the listing falls back to newest first.
func (s sortable) orderBy(sort []SortField, table string) clause.OrderBy {
	var cols []clause.OrderByColumn
	for _, f := range sort {
		col, ok := s[strings.TrimSpace(f.Field)]
		if !ok {
			continue
		}
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Table: table, Name: col}, Desc: f.Desc})
	}
	if len(cols) == 0 {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Table: table, Name: "created_at"}, Desc: true})
	}
	// Stable paging across equal timestamps
	cols = append(cols, clause.OrderByColumn{Column: clause.Column{Table: table, Name: "id"}})
	return clause.OrderBy{Columns: cols}
}

// paginate counts the filtered rows and loads one page of them. Preloads are
// applied to the page query only.
func paginate[T any](query *gorm.DB, req PageRequest, order clause.OrderBy, preloads ...string) (Page[T], error) {
	req = req.normalized()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	var rows []T
	if total > 0 {
		q := query.Session(&gorm.Session{})
		for _, p := range preloads {
			q = q.Preload(p)
		}
		err := q.Clauses(order).
			Limit(req.Size).
			Offset(req.Offset()).
			Find(&rows).Error
		if err != nil {
			return Page[T]{}, err
		}
	}
	return NewPage(rows, total, req), nil
}
