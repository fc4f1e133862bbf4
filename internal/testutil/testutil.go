// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ilawngbayan/storybooks/internal/common/database"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// NewRegistry returns a registry over a migrated in-memory SQLite database.
func NewRegistry(t testing.TB) *repository.Registry {
	t.Helper()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return repository.NewRegistry(db)
}

// SeedUser stores a user with the given role.
func SeedUser(t testing.TB, reg *repository.Registry, id uint, role string, approved bool) *models.User {
	t.Helper()

	user := &models.User{ID: id, Name: fmt.Sprintf("user-%d", id), Role: role, Approved: approved}
	require.NoError(t, reg.Users.Save(context.Background(), user))
	return user
}

// SeedBook stores a book with pageCount pages. When gated, every page carries
// one text question whose answer is "answer<pageNumber>".
func SeedBook(t testing.TB, reg *repository.Registry, title string, pageCount int, gated bool) *models.Book {
	t.Helper()

	book := &models.Book{Title: title, Type: "storybook"}
	for n := 1; n <= pageCount; n++ {
		page := models.Page{
			PageNumber: n,
			Content:    fmt.Sprintf("%s, page %d", title, n),
			ImageURL:   fmt.Sprintf("https://img.example/%d.png", n),
		}
		if gated {
			page.Questions = []models.Question{{
				QuestionText:  fmt.Sprintf("What happens on page %d?", n),
				AnswerType:    models.AnswerText,
				CorrectAnswer: fmt.Sprintf("answer%d", n),
			}}
		}
		book.Pages = append(book.Pages, page)
	}
	require.NoError(t, reg.Books.Save(context.Background(), book))

	stored, err := reg.Books.Get(context.Background(), book.ID)
	require.NoError(t, err)
	return stored
}

// Options encodes multiple choice options for a question fixture.
func Options(t testing.TB, opts ...string) datatypes.JSON {
	t.Helper()

	raw, err := json.Marshal(opts)
	require.NoError(t, err)
	return datatypes.JSON(raw)
}
