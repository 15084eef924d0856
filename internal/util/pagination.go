package util

import "strconv"

const DefaultPageSize = 10

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// Meta is the pagination block every list endpoint returns.
type Meta struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

func NewMeta(page, limit int, total int64) Meta {
	pages := (total + int64(limit) - 1) / int64(limit)
	return Meta{
		CurrentPage: page,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     int64(page) < pages,
		HasPrev:     page > 1,
	}
}
