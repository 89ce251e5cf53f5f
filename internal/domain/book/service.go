package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"library-service/internal/infrastructure/monitoring"
	"library-service/internal/pkg/apperrors"
	"library-service/internal/pkg/paging"
)

type Service interface {
	Create(ctx context.Context, title, author, isbn string) (*Book, error)
	GetByID(ctx context.Context, bookID int64) (*Book, error)
	GetByISBN(ctx context.Context, isbn string) (*Book, error)
	Update(ctx context.Context, book *Book) (*Book, error)
	Delete(ctx context.Context, book *Book) error
	Search(ctx context.Context, filter SearchFilter, page paging.Request) (paging.Page[*Book], error)
}

var _ Service = (*bookService)(nil)

type bookService struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	if repo == nil {
		panic("book repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewService, using default stderr handler")
	}

	return &bookService{
		repo:   repo,
		logger: logger.With(slog.String("component", "bookService")),
	}
}

func (s *bookService) Create(ctx context.Context, title, author, isbn string) (*Book, error) {
	s.logger.InfoContext(ctx, "Attempting to register new book", slog.String("isbn", isbn))

	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		s.logger.WarnContext(ctx, "Validation failed: isbn is empty")
		return nil, apperrors.NewValidationError("isbn", "isbn cannot be empty")
	}

	exists, err := s.repo.ExistsByISBN(ctx, isbn)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to check isbn uniqueness", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check isbn uniqueness: %w", err)
	}
	if exists {
		s.logger.WarnContext(ctx, "Book with this isbn already registered", slog.String("isbn", isbn))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrDuplicateISBN)
	}

	newBook := NewBook(title, author, isbn)
	if err := s.repo.Save(ctx, newBook); err != nil {
		// The unique index backstops the advisory check above; a concurrent
		// insert between check and save still surfaces as a duplicate.
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Concurrent insert hit unique isbn index", slog.String("isbn", isbn))
			return nil, fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrDuplicateISBN)
		}
		s.logger.ErrorContext(ctx, "Repository failed to save new book", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new book: %w", err)
	}

	monitoring.RecordBookCreated()
	s.logger.InfoContext(ctx, "Successfully registered new book", slog.Int64("bookID", newBook.ID))
	return newBook, nil
}

func (s *bookService) GetByID(ctx context.Context, bookID int64) (*Book, error) {
	s.logger.DebugContext(ctx, "Attempting to get book by ID", slog.Int64("bookID", bookID))

	found, err := s.repo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Book not found by repository", slog.Int64("bookID", bookID))
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Repository error finding book", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get book %d: %w", bookID, err)
	}

	return found, nil
}

func (s *bookService) GetByISBN(ctx context.Context, isbn string) (*Book, error) {
	s.logger.DebugContext(ctx, "Attempting to get book by isbn", slog.String("isbn", isbn))

	found, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Book not found by isbn", slog.String("isbn", isbn))
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Repository error finding book by isbn", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get book by isbn %s: %w", isbn, err)
	}

	return found, nil
}

func (s *bookService) Update(ctx context.Context, b *Book) (*Book, error) {
	if b == nil || b.ID == 0 {
		s.logger.ErrorContext(ctx, "Update called for a book without an assigned id")
		return nil, fmt.Errorf("%w: book id must be assigned before update", apperrors.ErrMissingID)
	}
	s.logger.InfoContext(ctx, "Attempting to update book", slog.Int64("bookID", b.ID))

	if err := s.repo.Update(ctx, b); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Book to update not found", slog.Int64("bookID", b.ID))
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Repository failed to update book", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update book %d: %w", b.ID, err)
	}

	s.logger.InfoContext(ctx, "Successfully updated book", slog.Int64("bookID", b.ID))
	return b, nil
}

func (s *bookService) Delete(ctx context.Context, b *Book) error {
	if b == nil || b.ID == 0 {
		s.logger.ErrorContext(ctx, "Delete called for a book without an assigned id")
		return fmt.Errorf("%w: book id must be assigned before delete", apperrors.ErrMissingID)
	}
	s.logger.InfoContext(ctx, "Attempting to delete book", slog.Int64("bookID", b.ID))

	if err := s.repo.Delete(ctx, b.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Book to delete not found", slog.Int64("bookID", b.ID))
			return err
		}
		s.logger.ErrorContext(ctx, "Repository failed to delete book", slog.Any("error", err))
		return fmt.Errorf("failed to delete book %d: %w", b.ID, err)
	}

	s.logger.InfoContext(ctx, "Successfully deleted book", slog.Int64("bookID", b.ID))
	return nil
}

func (s *bookService) Search(ctx context.Context, filter SearchFilter, page paging.Request) (paging.Page[*Book], error) {
	s.logger.DebugContext(ctx, "Searching books",
		slog.String("title", filter.Title),
		slog.String("author", filter.Author),
		slog.String("isbn", filter.ISBN),
		slog.Int("page", page.Page),
		slog.Int("size", page.Size),
	)

	books, total, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error searching books", slog.Any("error", err))
		return paging.Page[*Book]{}, fmt.Errorf("failed to search books: %w", err)
	}

	s.logger.DebugContext(ctx, "Book search finished", slog.Int("count", len(books)), slog.Int64("total", total))
	return paging.NewPage(books, page, total), nil
}
