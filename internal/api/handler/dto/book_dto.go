package dto

import (
	"time"

	"library-service/internal/domain/book"
)

type CreateBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn" validate:"required"`
}

func (r *CreateBookRequest) Validate() []string {
	return validationMessages(validate.Struct(r))
}

// UpdateBookRequest carries the full replacement state for a book. The path
// id wins over any id in the body.
type UpdateBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn" validate:"required"`
}

func (r *UpdateBookRequest) Validate() []string {
	return validationMessages(validate.Struct(r))
}

type BookResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewBookResponse(b *book.Book) BookResponse {
	if b == nil {
		return BookResponse{}
	}
	return BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func NewBookPageResponse(books []*book.Book, totalElements int64, totalPages, number, size int) PageResponse[BookResponse] {
	content := make([]BookResponse, len(books))
	for i, b := range books {
		content[i] = NewBookResponse(b)
	}
	return PageResponse[BookResponse]{
		Content:       content,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		Number:        number,
		Size:          size,
	}
}
