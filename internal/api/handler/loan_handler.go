package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"library-service/internal/api/handler/dto"
	"library-service/internal/domain/book"
	"library-service/internal/domain/loan"
	"library-service/internal/pkg/apperrors"
	"library-service/internal/pkg/paging"
)

type LoanHandler struct {
	loanService loan.Service
	bookService book.Service
	logger      *slog.Logger
}

func NewLoanHandler(ls loan.Service, bs book.Service, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		loanService: ls,
		bookService: bs,
		logger:      l.With("component", "LoanHandler"),
	}
}

// CreateLoan lends the book with the given isbn to a customer. The response
// body is the bare id of the created loan.
//
// @Summary Create a new loan
// @Description Lends the book identified by isbn to the named customer. Fails when the isbn is unknown or the book is already out on an active loan.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {integer} int64 "Id of the created loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload, unknown isbn or book already loaned"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if msgs := req.Validate(); len(msgs) > 0 {
		respondErrors(w, http.StatusBadRequest, msgs...)
		return
	}

	b, err := h.bookService.GetByISBN(r.Context(), req.ISBN)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondErrors(w, http.StatusBadRequest, msgBookNotFoundForIsbn)
			return
		}
		respondError(w, err)
		return
	}

	createdLoan, err := h.loanService.Create(r.Context(), b, req.Customer)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, createdLoan.ID)
}

// ReturnLoan updates the returned flag of a loan.
//
// @Summary Mark a loan returned
// @Description Sets the returned flag of an existing loan. Once a loan is returned it stays returned.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.ReturnLoanRequest true "Return flag payload"
// @Success 200 {object} dto.LoanResponse "Updated loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or request payload"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [patch]
// @Security BearerAuth
func (h *LoanHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.ReturnLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if msgs := req.Validate(); len(msgs) > 0 {
		respondErrors(w, http.StatusBadRequest, msgs...)
		return
	}

	l, err := h.loanService.GetByID(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	l.MarkReturned(*req.Returned)

	updatedLoan, err := h.loanService.Update(r.Context(), l)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updatedLoan))
}

// ListLoans returns a page of loans with their books embedded. A non-empty
// isbn or customer parameter narrows the page to exact matches on either.
//
// @Summary Search loans
// @Tags Loans
// @Produce json
// @Param isbn query string false "Exact isbn filter"
// @Param customer query string false "Exact customer filter"
// @Param page query int false "Zero-based page number"
// @Param size query int false "Page size"
// @Success 200 {object} dto.PageResponse[dto.LoanResponse] "Page of matching loans"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := loan.SearchFilter{
		ISBN:     query.Get("isbn"),
		Customer: query.Get("customer"),
	}
	pageReq := paging.FromQuery(query)

	page, err := h.loanService.Search(r.Context(), filter, pageReq)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.NewLoanPageResponse(page.Content, page.TotalElements, int(page.TotalPages()), page.Number, page.Size)
	respondJSON(w, http.StatusOK, resp)
}
