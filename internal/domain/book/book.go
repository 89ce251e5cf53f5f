package book

import (
	"strings"
	"time"
)

type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewBook(title, author, isbn string) *Book {
	now := time.Now()
	return &Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		ISBN:      strings.TrimSpace(isbn),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SearchFilter holds optional example fields for catalog searches. Empty
// fields are ignored; non-empty fields match as case-insensitive prefixes.
type SearchFilter struct {
	Title  string
	Author string
	ISBN   string
}

func (f SearchFilter) IsEmpty() bool {
	return f.Title == "" && f.Author == "" && f.ISBN == ""
}

// Matches reports whether b satisfies every non-empty filter field. The
// postgres repository applies the same policy in SQL; this predicate is the
// reference semantics for any backing store.
func (f SearchFilter) Matches(b *Book) bool {
	if b == nil {
		return false
	}
	return matchesPrefix(b.Title, f.Title) &&
		matchesPrefix(b.Author, f.Author) &&
		matchesPrefix(b.ISBN, f.ISBN)
}

func matchesPrefix(value, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(value), strings.ToLower(prefix))
}
