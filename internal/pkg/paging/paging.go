package paging

import (
	"net/url"
	"strconv"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Request is a zero-based page request.
type Request struct {
	Page int
	Size int
}

// FromQuery parses page/size query parameters, falling back to defaults for
// missing or malformed values and clamping size to MaxSize.
func FromQuery(values url.Values) Request {
	req := Request{Page: 0, Size: DefaultSize}

	if raw := values.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 0 {
			req.Page = page
		}
	}
	if raw := values.Get("size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			req.Size = size
		}
	}
	if req.Size > MaxSize {
		req.Size = MaxSize
	}
	return req
}

func (r Request) Offset() int {
	return r.Page * r.Size
}

func (r Request) Limit() int {
	return r.Size
}

// Page is a bounded slice of a result set plus total-count metadata.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
}

func NewPage[T any](content []T, req Request, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
	}
}

func (p Page[T]) TotalPages() int64 {
	if p.Size <= 0 {
		return 0
	}
	pages := p.TotalElements / int64(p.Size)
	if p.TotalElements%int64(p.Size) != 0 {
		pages++
	}
	return pages
}
