package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"

	"library-service/internal/domain/book"
	"library-service/internal/infrastructure/monitoring"
	"library-service/internal/pkg/apperrors"
	"library-service/internal/pkg/paging"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

type BookRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ book.Repository = (*BookRepository)(nil)

func NewBookRepository(db DBPool, logger *slog.Logger) *BookRepository {
	if db == nil {
		panic("DBPool cannot be nil for BookRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewBookRepository, using default stderr handler")
	}
	return &BookRepository{
		db:     db,
		logger: logger.With("component", "BookRepository"),
	}
}

func (r *BookRepository) Save(ctx context.Context, b *book.Book) error {
	if b == nil {
		return fmt.Errorf("%w: book cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to insert new book", slog.String("isbn", b.ISBN))

	query := `
        INSERT INTO books (title, author, isbn, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		b.Title,
		b.Author,
		b.ISBN,
	).Scan(
		&b.ID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	monitoring.RecordDBQuery("book_insert", queryStatus(err), time.Since(start))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert book due to unique isbn violation", slog.String("isbn", b.ISBN))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert book", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert book: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Book inserted successfully", slog.Int64("bookID", b.ID))
	return nil
}

func (r *BookRepository) FindByID(ctx context.Context, bookID int64) (*book.Book, error) {
	r.logger.DebugContext(ctx, "Attempting to find book by ID", slog.Int64("bookID", bookID))

	query := `
        SELECT id, title, author, isbn, created_at, updated_at
        FROM books
        WHERE id = $1`

	var b book.Book
	err := r.db.QueryRow(ctx, query, bookID).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ISBN,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Book not found", slog.Int64("bookID", bookID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find book by ID", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return &b, nil
}

func (r *BookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	r.logger.DebugContext(ctx, "Attempting to find book by isbn", slog.String("isbn", isbn))

	query := `
        SELECT id, title, author, isbn, created_at, updated_at
        FROM books
        WHERE isbn = $1`

	var b book.Book
	err := r.db.QueryRow(ctx, query, isbn).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ISBN,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Book not found by isbn", slog.String("isbn", isbn))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find book by isbn", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return &b, nil
}

func (r *BookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM books WHERE isbn = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, isbn).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check isbn existence", slog.Any("error", err))
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return exists, nil
}

func (r *BookRepository) Update(ctx context.Context, b *book.Book) error {
	r.logger.InfoContext(ctx, "Attempting to update book", slog.Int64("bookID", b.ID))

	query := `
        UPDATE books
        SET title = $1,
            author = $2,
            isbn = $3,
            updated_at = NOW()
        WHERE id = $4`

	cmdTag, err := r.db.Exec(ctx, query,
		b.Title,
		b.Author,
		b.ISBN,
		b.ID,
	)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to update book due to unique isbn violation", slog.Any("error", err))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to update book", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update book: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, book likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Book updated successfully")
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, bookID int64) error {
	r.logger.InfoContext(ctx, "Attempting to delete book", slog.Int64("bookID", bookID))

	query := `DELETE FROM books WHERE id = $1`

	cmdTag, err := r.db.Exec(ctx, query, bookID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete book", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete book: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, book likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Book deleted successfully", slog.Int64("bookID", bookID))
	return nil
}

// Search applies the ignore-empty, case-insensitive prefix policy of
// book.SearchFilter in SQL.
func (r *BookRepository) Search(ctx context.Context, filter book.SearchFilter, page paging.Request) ([]*book.Book, int64, error) {
	logCtx := r.logger.With(slog.String("operation", "Search"))
	logCtx.DebugContext(ctx, "Searching books",
		slog.String("title", filter.Title),
		slog.String("author", filter.Author),
		slog.String("isbn", filter.ISBN),
	)

	const matchClause = `
        ($1 = '' OR title ILIKE $1 || '%')
        AND ($2 = '' OR author ILIKE $2 || '%')
        AND ($3 = '' OR isbn ILIKE $3 || '%')`

	countQuery := `SELECT count(*) FROM books WHERE` + matchClause

	title := escapeLikePattern(filter.Title)
	author := escapeLikePattern(filter.Author)
	isbn := escapeLikePattern(filter.ISBN)

	var total int64
	start := time.Now()
	err := r.db.QueryRow(ctx, countQuery, title, author, isbn).Scan(&total)
	monitoring.RecordDBQuery("book_search_count", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to count matching books", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to count matching books: %w", apperrors.ErrDatabase, err)
	}

	query := `
        SELECT id, title, author, isbn, created_at, updated_at
        FROM books
        WHERE` + matchClause + `
        ORDER BY id
        LIMIT $4 OFFSET $5`

	start = time.Now()
	rows, err := r.db.Query(ctx, query, title, author, isbn, page.Limit(), page.Offset())
	monitoring.RecordDBQuery("book_search", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query books", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to query books: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	books := make([]*book.Book, 0)
	for rows.Next() {
		var b book.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CreatedAt, &b.UpdatedAt); err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan book row", slog.Any("error", err))
			return nil, 0, fmt.Errorf("%w: failed scanning book row: %w", apperrors.ErrDatabase, err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Row iteration error", slog.Any("error", err))
		return nil, 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Book search finished", slog.Int("count", len(books)), slog.Int64("total", total))
	return books, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePattern neutralizes LIKE metacharacters so filter values match
// literally as prefixes.
func escapeLikePattern(value string) string {
	return likeEscaper.Replace(value)
}

func queryStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
