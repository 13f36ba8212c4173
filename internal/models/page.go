package models

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxOffset — наибольшее смещение, до которого доводится номер страницы.
	MaxOffset = math.MaxInt32
)

// Pagination — смещённая пагинация: номер страницы с единицы и размер страницы.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize подставляет значения по умолчанию, ограничивает размер страницы
// и номер страницы так, чтобы смещение не превышало MaxOffset.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if maxPage := MaxOffset/p.PageSize + 1; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// Offset возвращает количество пропускаемых строк.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page — страница результатов вместе с общим количеством записей.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
}

// NewPage собирает страницу. Пустой результат отдаётся пустым срезом, а не nil.
func NewPage[T any](items []T, total int, p Pagination) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       p.Page,
		PageSize:   p.PageSize,
	}
}
