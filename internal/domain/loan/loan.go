package loan

import (
	"strings"
	"time"

	"library-service/internal/domain/book"
)

// Loan tracks a single lending of a book to a customer. Returned is nullable
// on purpose: nil and false both mean the loan is still active, true is the
// terminal state.
type Loan struct {
	ID        int64      `json:"id"`
	BookID    int64      `json:"bookId"`
	Book      *book.Book `json:"book,omitempty"`
	Customer  string     `json:"customer"`
	LoanDate  time.Time  `json:"loanDate"`
	Returned  *bool      `json:"returned,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewLoan(b *book.Book, customer string, loanDate time.Time) *Loan {
	now := time.Now()
	if loanDate.IsZero() {
		loanDate = now.Truncate(24 * time.Hour)
	}
	return &Loan{
		BookID:    b.ID,
		Book:      b,
		Customer:  strings.TrimSpace(customer),
		LoanDate:  loanDate,
		Returned:  nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Active reports whether the book is still out.
func (l *Loan) Active() bool {
	return l.Returned == nil || !*l.Returned
}

// MarkReturned records the return flag. Once a loan has been returned the
// state is terminal and later updates are ignored.
func (l *Loan) MarkReturned(returned bool) {
	if l.Returned != nil && *l.Returned {
		return
	}
	l.Returned = &returned
	l.UpdatedAt = time.Now()
}

// Overdue reports whether the loan was taken out strictly before cutoff and
// the book has not come back.
func (l *Loan) Overdue(cutoff time.Time) bool {
	return l.Active() && l.LoanDate.Before(cutoff)
}

// SearchFilter matches loans whose book isbn OR customer equals the given
// values; both empty matches everything.
type SearchFilter struct {
	ISBN     string
	Customer string
}

func (f SearchFilter) IsEmpty() bool {
	return f.ISBN == "" && f.Customer == ""
}
