package book

import (
	"context"
	"errors"

	"library-service/internal/pkg/paging"
)

var (
	ErrDuplicateISBN = errors.New("isbn already registered")
)

type Repository interface {
	Save(ctx context.Context, book *Book) error

	FindByID(ctx context.Context, bookID int64) (*Book, error)

	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	ExistsByISBN(ctx context.Context, isbn string) (bool, error)

	Update(ctx context.Context, book *Book) error

	Delete(ctx context.Context, bookID int64) error

	Search(ctx context.Context, filter SearchFilter, page paging.Request) ([]*Book, int64, error)
}
