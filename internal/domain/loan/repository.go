package loan

import (
	"context"
	"errors"
	"time"

	"library-service/internal/pkg/paging"
)

var (
	ErrAlreadyLoaned = errors.New("book already loaned")
)

type Repository interface {
	Save(ctx context.Context, loan *Loan) error

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	// ExistsActiveByBookID reports whether the book currently has a loan with
	// returned null or false.
	ExistsActiveByBookID(ctx context.Context, bookID int64) (bool, error)

	Update(ctx context.Context, loan *Loan) error

	Search(ctx context.Context, filter SearchFilter, page paging.Request) ([]*Loan, int64, error)

	// FindOverdue returns every loan with loan_date strictly before cutoff and
	// returned null or false. No ordering is guaranteed.
	FindOverdue(ctx context.Context, cutoff time.Time) ([]*Loan, error)
}
