package book

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"library-service/internal/pkg/apperrors"
	"library-service/internal/pkg/paging"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, b *Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, bookID int64) (*Book, error) {
	args := m.Called(ctx, bookID)
	if b, ok := args.Get(0).(*Book); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) FindByISBN(ctx context.Context, isbn string) (*Book, error) {
	args := m.Called(ctx, isbn)
	if b, ok := args.Get(0).(*Book); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	args := m.Called(ctx, isbn)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, b *Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, bookID int64) error {
	args := m.Called(ctx, bookID)
	return args.Error(0)
}

func (m *MockRepository) Search(ctx context.Context, filter SearchFilter, page paging.Request) ([]*Book, int64, error) {
	args := m.Called(ctx, filter, page)
	if books, ok := args.Get(0).([]*Book); ok {
		return books, args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func TestCreateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new book and assigns identity", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("ExistsByISBN", ctx, "001").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*book.Book")).Run(func(args mock.Arguments) {
			args.Get(1).(*Book).ID = 11
		}).Return(nil)

		created, err := svc.Create(ctx, "As aventuras", "Artur", "001")

		assert.NoError(t, err)
		assert.Equal(t, int64(11), created.ID)
		assert.Equal(t, "As aventuras", created.Title)
		assert.Equal(t, "Artur", created.Author)
		assert.Equal(t, "001", created.ISBN)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate isbn", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("ExistsByISBN", ctx, "001").Return(true, nil)

		created, err := svc.Create(ctx, "Another title", "Someone", "001")

		assert.Nil(t, created)
		assert.True(t, errors.Is(err, ErrDuplicateISBN))
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("maps concurrent unique index violation to duplicate isbn", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("ExistsByISBN", ctx, "001").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*book.Book")).
			Return(apperrors.ErrAlreadyExists)

		created, err := svc.Create(ctx, "As aventuras", "Artur", "001")

		assert.Nil(t, created)
		assert.True(t, errors.Is(err, ErrDuplicateISBN))
	})

	t.Run("rejects empty isbn", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		created, err := svc.Create(ctx, "As aventuras", "Artur", "  ")

		assert.Nil(t, created)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestGetBookByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the book when it exists", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		expected := &Book{ID: 7, Title: "As aventuras", Author: "Artur", ISBN: "001"}
		repo.On("FindByID", ctx, int64(7)).Return(expected, nil)

		found, err := svc.GetByID(ctx, 7)

		assert.NoError(t, err)
		assert.Equal(t, expected, found)
	})

	t.Run("propagates not found", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("FindByID", ctx, int64(99)).Return(nil, apperrors.ErrNotFound)

		found, err := svc.GetByID(ctx, 99)

		assert.Nil(t, found)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestGetBookByISBN(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, logger)

	repo.On("FindByISBN", ctx, "999").Return(nil, apperrors.ErrNotFound)

	found, err := svc.GetByISBN(ctx, "999")

	assert.Nil(t, found)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a book without identity", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		updated, err := svc.Update(ctx, &Book{Title: "No id"})

		assert.Nil(t, updated)
		assert.True(t, errors.Is(err, apperrors.ErrMissingID))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("persists changes for an identified book", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		b := &Book{ID: 5, Title: "New title", Author: "Artur", ISBN: "001"}
		repo.On("Update", ctx, b).Return(nil)

		updated, err := svc.Update(ctx, b)

		assert.NoError(t, err)
		assert.Equal(t, b, updated)
	})
}

func TestDeleteBook(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a book without identity", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		err := svc.Delete(ctx, &Book{})

		assert.True(t, errors.Is(err, apperrors.ErrMissingID))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes an identified book", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("Delete", ctx, int64(5)).Return(nil)

		assert.NoError(t, svc.Delete(ctx, &Book{ID: 5}))
		repo.AssertExpectations(t)
	})
}

func TestSearchBooks(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, logger)

	filter := SearchFilter{Title: "As"}
	pageReq := paging.Request{Page: 0, Size: 10}
	content := []*Book{{ID: 1, Title: "As aventuras", Author: "Artur", ISBN: "001"}}

	repo.On("Search", ctx, filter, pageReq).Return(content, int64(1), nil)

	page, err := svc.Search(ctx, filter, pageReq)

	assert.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.Equal(t, int64(1), page.TotalElements)
	assert.Equal(t, 0, page.Number)
	assert.Equal(t, 10, page.Size)
}
