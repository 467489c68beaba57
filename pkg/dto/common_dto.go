package dto

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// UserSummary is the public slice of a user embedded in posts, comments, messages and events.
type UserSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type PageQuery struct {
	PageIndex int    `form:"pageIndex" binding:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	Filter    string `form:"filter" binding:"omitempty,oneof=all unread"`
}

// Normalize fills zero values with defaults.
func (q PageQuery) Normalize(defaultSize int) PageQuery {
	if q.PageIndex < 1 {
		q.PageIndex = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.Filter == "" {
		q.Filter = "all"
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.PageIndex - 1) * q.PageSize
}

func (q PageQuery) UnreadOnly() bool {
	return q.Filter == "unread"
}

type Page[T any] struct {
	PageIndex    int   `json:"pageIndex"`
	PageSize     int   `json:"pageSize"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
	Records      []T   `json:"records"`
}

func NewPage[T any](records []T, q PageQuery, total int64) Page[T] {
	if records == nil {
		records = []T{}
	}
	totalPages := 0
	if q.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(q.PageSize)))
	}
	return Page[T]{
		PageIndex:    q.PageIndex,
		PageSize:     q.PageSize,
		TotalPages:   totalPages,
		TotalRecords: total,
		Records:      records,
	}
}
