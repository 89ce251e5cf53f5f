package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"library-service/internal/domain/book"
	"library-service/internal/event"
	"library-service/internal/infrastructure/monitoring"
	"library-service/internal/pkg/apperrors"
	"library-service/internal/pkg/paging"
)

type Service interface {
	Create(ctx context.Context, b *book.Book, customer string) (*Loan, error)
	GetByID(ctx context.Context, loanID int64) (*Loan, error)
	Update(ctx context.Context, loan *Loan) (*Loan, error)
	Search(ctx context.Context, filter SearchFilter, page paging.Request) (paging.Page[*Loan], error)
	FindOverdue(ctx context.Context, cutoff time.Time) ([]*Loan, error)
}

var _ Service = (*loanService)(nil)

type loanService struct {
	repo   Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, publisher event.Publisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewService, using default stderr handler")
	}

	return &loanService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "loanService")),
	}
}

func newLoanEventPayload(l *Loan) event.LoanEventPayload {
	payload := event.LoanEventPayload{
		LoanID:   l.ID,
		BookID:   l.BookID,
		Customer: l.Customer,
		LoanDate: l.LoanDate,
		Returned: l.Returned,
	}
	if l.Book != nil {
		payload.ISBN = l.Book.ISBN
	}
	return payload
}

func (s *loanService) Create(ctx context.Context, b *book.Book, customer string) (*Loan, error) {
	if b == nil || b.ID == 0 {
		s.logger.ErrorContext(ctx, "Create called without a persisted book")
		return nil, fmt.Errorf("%w: loan requires a persisted book", apperrors.ErrInvalidArgument)
	}
	logCtx := s.logger.With(slog.Int64("bookID", b.ID), slog.String("isbn", b.ISBN))
	logCtx.InfoContext(ctx, "Attempting to create new loan")

	customer = strings.TrimSpace(customer)
	if customer == "" {
		logCtx.WarnContext(ctx, "Validation failed: customer is empty")
		return nil, apperrors.NewValidationError("customer", "customer cannot be empty")
	}

	active, err := s.repo.ExistsActiveByBookID(ctx, b.ID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to check active loans for book", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check active loans for book %d: %w", b.ID, err)
	}
	if active {
		logCtx.WarnContext(ctx, "Book already has an active loan")
		return nil, fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrAlreadyLoaned)
	}

	newLoan := NewLoan(b, customer, time.Time{})
	if err := s.repo.Save(ctx, newLoan); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save new loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new loan: %w", err)
	}

	monitoring.RecordLoanCreated()
	logCtx = logCtx.With(slog.Int64("loanID", newLoan.ID))
	logCtx.InfoContext(ctx, "Successfully created new loan, publishing creation event")

	createdEvent := event.LoanCreatedEvent{
		Timestamp: time.Now(),
		Payload:   newLoanEventPayload(newLoan),
	}
	if pubErr := s.pub.PublishLoanCreated(ctx, createdEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Loan created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	return newLoan, nil
}

func (s *loanService) GetByID(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.DebugContext(ctx, "Attempting to get loan by ID", slog.Int64("loanID", loanID))

	found, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found by repository", slog.Int64("loanID", loanID))
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Repository error finding loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}

	return found, nil
}

func (s *loanService) Update(ctx context.Context, l *Loan) (*Loan, error) {
	if l == nil || l.ID == 0 {
		s.logger.ErrorContext(ctx, "Update called for a loan without an assigned id")
		return nil, fmt.Errorf("%w: loan id must be assigned before update", apperrors.ErrMissingID)
	}
	logCtx := s.logger.With(slog.Int64("loanID", l.ID))
	logCtx.InfoContext(ctx, "Attempting to update loan")

	if err := s.repo.Update(ctx, l); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan to update not found")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository failed to update loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update loan %d: %w", l.ID, err)
	}

	if l.Returned != nil && *l.Returned {
		monitoring.RecordLoanReturned()
		returnedEvent := event.LoanReturnedEvent{
			Timestamp: time.Now(),
			Payload:   newLoanEventPayload(l),
		}
		if pubErr := s.pub.PublishLoanReturned(ctx, returnedEvent); pubErr != nil {
			logCtx.ErrorContext(ctx, "Loan updated, but FAILED to publish return event", slog.Any("error", pubErr))
		}
	}

	logCtx.InfoContext(ctx, "Successfully updated loan")
	return l, nil
}

func (s *loanService) Search(ctx context.Context, filter SearchFilter, page paging.Request) (paging.Page[*Loan], error) {
	s.logger.DebugContext(ctx, "Searching loans",
		slog.String("isbn", filter.ISBN),
		slog.String("customer", filter.Customer),
		slog.Int("page", page.Page),
		slog.Int("size", page.Size),
	)

	loans, total, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error searching loans", slog.Any("error", err))
		return paging.Page[*Loan]{}, fmt.Errorf("failed to search loans: %w", err)
	}

	s.logger.DebugContext(ctx, "Loan search finished", slog.Int("count", len(loans)), slog.Int64("total", total))
	return paging.NewPage(loans, page, total), nil
}

func (s *loanService) FindOverdue(ctx context.Context, cutoff time.Time) ([]*Loan, error) {
	s.logger.InfoContext(ctx, "Fetching overdue loans", slog.Time("cutoff", cutoff))

	overdue, err := s.repo.FindOverdue(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error fetching overdue loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch overdue loans: %w", err)
	}

	s.logger.InfoContext(ctx, "Fetched overdue loans", slog.Int("count", len(overdue)))
	return overdue, nil
}
