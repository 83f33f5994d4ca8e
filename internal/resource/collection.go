package resource

import "github.com/p-blackswan/taskhub/internal/models"

// Pagination summarizes where a collection sits in the full result set.
type Pagination struct {
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	PageSize   int  `json:"pageSize"`
	PageIndex  int  `json:"pageIndex"`
	First      bool `json:"first"`
	Last       bool `json:"last"`
}

// Collection is one loaded page of items.
type Collection[T any] struct {
	Items      []T
	Pagination *Pagination
}

// NewCollection converts a wire page. A nil page or a page without content is
// an empty collection, not an error. Items never exceed the page size and the
// page index is clamped into [0, TotalPages) when there are pages.
func NewCollection[T any](page *models.Page[T]) Collection[T] {
	if page == nil || page.Content == nil {
		return Collection[T]{Items: []T{}}
	}

	items := page.Content
	size := page.Size
	if size <= 0 {
		size = len(items)
	}
	if len(items) > size {
		items = items[:size]
	}

	index := page.Number
	if index < 0 {
		index = 0
	}
	if page.TotalPages > 0 && index >= page.TotalPages {
		index = page.TotalPages - 1
	}

	return Collection[T]{
		Items: append([]T(nil), items...),
		Pagination: &Pagination{
			TotalItems: page.TotalElements,
			TotalPages: page.TotalPages,
			PageSize:   size,
			PageIndex:  index,
			First:      page.First,
			Last:       page.Last,
		},
	}
}
