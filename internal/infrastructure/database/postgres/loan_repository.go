package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"library-service/internal/domain/book"
	"library-service/internal/domain/loan"
	"library-service/internal/infrastructure/monitoring"
	"library-service/internal/pkg/apperrors"
	"library-service/internal/pkg/paging"
)

const loanWithBookColumns = `
        l.id, l.book_id, l.customer, l.loan_date, l.returned, l.created_at, l.updated_at,
        b.id, b.title, b.author, b.isbn, b.created_at, b.updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewLoanRepository, using default stderr handler")
	}
	return &LoanRepository{
		db:     db,
		logger: logger.With("component", "LoanRepository"),
	}
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to insert new loan", slog.Int64("bookID", l.BookID))

	query := `
        INSERT INTO loans (book_id, customer, loan_date, returned, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		l.BookID,
		l.Customer,
		l.LoanDate,
		l.Returned,
	).Scan(
		&l.ID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	monitoring.RecordDBQuery("loan_insert", queryStatus(err), time.Since(start))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan inserted successfully", slog.Int64("loanID", l.ID))
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	r.logger.DebugContext(ctx, "Attempting to find loan by ID", slog.Int64("loanID", loanID))

	query := `
        SELECT` + loanWithBookColumns + `
        FROM loans l
        JOIN books b ON b.id = l.book_id
        WHERE l.id = $1`

	l, err := scanLoanWithBook(r.db.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find loan by ID", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return l, nil
}

func (r *LoanRepository) ExistsActiveByBookID(ctx context.Context, bookID int64) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM loans
            WHERE book_id = $1 AND (returned IS NULL OR returned = false)
        )`

	var exists bool
	start := time.Now()
	err := r.db.QueryRow(ctx, query, bookID).Scan(&exists)
	monitoring.RecordDBQuery("loan_active_exists", queryStatus(err), time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check active loan existence", slog.Any("error", err))
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return exists, nil
}

func (r *LoanRepository) Update(ctx context.Context, l *loan.Loan) error {
	r.logger.InfoContext(ctx, "Attempting to update loan", slog.Int64("loanID", l.ID))

	query := `
        UPDATE loans
        SET customer = $1,
            loan_date = $2,
            returned = $3,
            updated_at = NOW()
        WHERE id = $4`

	cmdTag, err := r.db.Exec(ctx, query,
		l.Customer,
		l.LoanDate,
		l.Returned,
		l.ID,
	)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update loan: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, loan likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Loan updated successfully")
	return nil
}

// Search matches loans whose book isbn OR customer equals the filter values,
// mirroring loan.SearchFilter. An empty filter matches every loan.
func (r *LoanRepository) Search(ctx context.Context, filter loan.SearchFilter, page paging.Request) ([]*loan.Loan, int64, error) {
	logCtx := r.logger.With(slog.String("operation", "Search"))
	logCtx.DebugContext(ctx, "Searching loans",
		slog.String("isbn", filter.ISBN),
		slog.String("customer", filter.Customer),
	)

	const matchClause = `
        (($1 = '' AND $2 = '')
         OR ($1 <> '' AND b.isbn = $1)
         OR ($2 <> '' AND l.customer = $2))`

	countQuery := `
        SELECT count(*)
        FROM loans l
        JOIN books b ON b.id = l.book_id
        WHERE` + matchClause

	var total int64
	start := time.Now()
	err := r.db.QueryRow(ctx, countQuery, filter.ISBN, filter.Customer).Scan(&total)
	monitoring.RecordDBQuery("loan_search_count", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to count matching loans", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to count matching loans: %w", apperrors.ErrDatabase, err)
	}

	query := `
        SELECT` + loanWithBookColumns + `
        FROM loans l
        JOIN books b ON b.id = l.book_id
        WHERE` + matchClause + `
        ORDER BY l.id
        LIMIT $3 OFFSET $4`

	start = time.Now()
	rows, err := r.db.Query(ctx, query, filter.ISBN, filter.Customer, page.Limit(), page.Offset())
	monitoring.RecordDBQuery("loan_search", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query loans", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans, err := collectLoans(rows)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to collect loan rows", slog.Any("error", err))
		return nil, 0, err
	}

	logCtx.DebugContext(ctx, "Loan search finished", slog.Int("count", len(loans)), slog.Int64("total", total))
	return loans, total, nil
}

func (r *LoanRepository) FindOverdue(ctx context.Context, cutoff time.Time) ([]*loan.Loan, error) {
	logCtx := r.logger.With(slog.String("operation", "FindOverdue"))
	logCtx.DebugContext(ctx, "Querying overdue loans", slog.Time("cutoff", cutoff))

	query := `
        SELECT` + loanWithBookColumns + `
        FROM loans l
        JOIN books b ON b.id = l.book_id
        WHERE l.loan_date < $1
          AND (l.returned IS NULL OR l.returned = false)`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, cutoff)
	monitoring.RecordDBQuery("loan_find_overdue", queryStatus(err), time.Since(start))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query overdue loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query overdue loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans, err := collectLoans(rows)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to collect overdue loan rows", slog.Any("error", err))
		return nil, err
	}

	logCtx.DebugContext(ctx, "Overdue loan query finished", slog.Int("count", len(loans)))
	return loans, nil
}

func scanLoanWithBook(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	var b book.Book
	err := row.Scan(
		&l.ID,
		&l.BookID,
		&l.Customer,
		&l.LoanDate,
		&l.Returned,
		&l.CreatedAt,
		&l.UpdatedAt,
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ISBN,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Book = &b
	return &l, nil
}

func collectLoans(rows pgx.Rows) ([]*loan.Loan, error) {
	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoanWithBook(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed scanning loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}
