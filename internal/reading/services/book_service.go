package services

import (
	"context"
	"fmt"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
)

// BookService reads the storybook catalog
type BookService struct {
	repos *repository.Registry
}

// NewBookService creates a book service
func NewBookService(repos *repository.Registry) *BookService {
	return &BookService{repos: repos}
}

// List returns a summary of every book
func (s *BookService) List(ctx context.Context) ([]*models.BookSummary, error) {
	books, err := s.repos.Books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	summaries := make([]*models.BookSummary, len(books))
	for i, b := range books {
		count, err := s.repos.Books.PageCount(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("count pages of book %d: %w", b.ID, err)
		}
		summaries[i] = &models.BookSummary{
			ID:        b.ID,
			Title:     b.Title,
			Type:      b.Type,
			PageCount: count,
		}
	}
	return summaries, nil
}

// Get returns a book with its ordered pages and questions
func (s *BookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.repos.Books.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}
