package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"library-service/internal/api/handler/dto"
	"library-service/internal/domain/book"
	"library-service/internal/domain/loan"
	"library-service/internal/pkg/apperrors"
	"library-service/internal/pkg/paging"
)

const (
	msgIsbnAlreadyRegistered = "Isbn already registered"
	msgBookAlreadyLoaned     = "Book already loaned"
	msgBookNotFoundForIsbn   = "Book not found for passed isbn"
	msgResourceNotFound      = "resource not found"
)

type BookHandler struct {
	service book.Service
	logger  *slog.Logger
}

func NewBookHandler(s book.Service, l *slog.Logger) *BookHandler {
	return &BookHandler{
		service: s,
		logger:  l.With("component", "BookHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"errors":["Internal server error"]}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondErrors(w http.ResponseWriter, status int, messages ...string) {
	respondJSON(w, status, dto.NewErrorResponse(messages...))
}

func respondError(w http.ResponseWriter, err error) {
	status, message := http.StatusInternalServerError, "An unexpected error occurred."
	var validationError *apperrors.ValidationError

	switch {
	case errors.Is(err, book.ErrDuplicateISBN), errors.Is(err, apperrors.ErrAlreadyExists):
		status, message = http.StatusBadRequest, msgIsbnAlreadyRegistered
	case errors.Is(err, loan.ErrAlreadyLoaned):
		status, message = http.StatusBadRequest, msgBookAlreadyLoaned
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, msgResourceNotFound
	case errors.As(err, &validationError):
		status, message = http.StatusBadRequest, validationError.Message
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	respondErrors(w, status, message)
}

func getIDFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("%s not found in URL path", param)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// CreateBook registers a new book in the catalog.
//
// @Summary Register a new book
// @Description Creates a catalog entry for a book. The isbn must not already be registered.
// @Tags Books
// @Accept json
// @Produce json
// @Param request body dto.CreateBookRequest true "Book creation request payload"
// @Success 201 {object} dto.BookResponse "Book successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or isbn already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /books [post]
// @Security BearerAuth
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if msgs := req.Validate(); len(msgs) > 0 {
		respondErrors(w, http.StatusBadRequest, msgs...)
		return
	}

	createdBook, err := h.service.Create(r.Context(), req.Title, req.Author, req.ISBN)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewBookResponse(createdBook))
}

// GetBook retrieves a single book by its id.
//
// @Summary Retrieve book details
// @Tags Books
// @Produce json
// @Param bookID path int true "Book ID"
// @Success 200 {object} dto.BookResponse "Book details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid book ID"
// @Failure 404 {object} dto.ErrorResponse "Book not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /books/{bookID} [get]
// @Security BearerAuth
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := getIDFromURL(r, "bookID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	b, err := h.service.GetByID(r.Context(), bookID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewBookResponse(b))
}

// UpdateBook replaces the title, author and isbn of an existing book.
//
// @Summary Update a book
// @Tags Books
// @Accept json
// @Produce json
// @Param bookID path int true "Book ID"
// @Param request body dto.UpdateBookRequest true "Book update request payload"
// @Success 200 {object} dto.BookResponse "Book successfully updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or isbn already registered"
// @Failure 404 {object} dto.ErrorResponse "Book not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /books/{bookID} [put]
// @Security BearerAuth
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := getIDFromURL(r, "bookID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.UpdateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if msgs := req.Validate(); len(msgs) > 0 {
		respondErrors(w, http.StatusBadRequest, msgs...)
		return
	}

	b, err := h.service.GetByID(r.Context(), bookID)
	if err != nil {
		respondError(w, err)
		return
	}

	b.Title = req.Title
	b.Author = req.Author
	b.ISBN = req.ISBN

	updatedBook, err := h.service.Update(r.Context(), b)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewBookResponse(updatedBook))
}

// DeleteBook removes a book from the catalog.
//
// @Summary Delete a book
// @Tags Books
// @Param bookID path int true "Book ID"
// @Success 204 "Book successfully deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid book ID"
// @Failure 404 {object} dto.ErrorResponse "Book not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /books/{bookID} [delete]
// @Security BearerAuth
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := getIDFromURL(r, "bookID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	b, err := h.service.GetByID(r.Context(), bookID)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), b); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListBooks returns a page of books matching the optional filter parameters.
// Title, author and isbn are case-insensitive prefix matches; empty
// parameters match everything.
//
// @Summary Search books
// @Tags Books
// @Produce json
// @Param title query string false "Title prefix filter"
// @Param author query string false "Author prefix filter"
// @Param isbn query string false "Isbn prefix filter"
// @Param page query int false "Zero-based page number"
// @Param size query int false "Page size"
// @Success 200 {object} dto.PageResponse[dto.BookResponse] "Page of matching books"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /books [get]
// @Security BearerAuth
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := book.SearchFilter{
		Title:  query.Get("title"),
		Author: query.Get("author"),
		ISBN:   query.Get("isbn"),
	}
	pageReq := paging.FromQuery(query)

	page, err := h.service.Search(r.Context(), filter, pageReq)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.NewBookPageResponse(page.Content, page.TotalElements, int(page.TotalPages()), page.Number, page.Size)
	respondJSON(w, http.StatusOK, resp)
}
