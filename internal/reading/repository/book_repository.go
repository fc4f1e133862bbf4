package repository

import (
	"context"
	"errors"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"gorm.io/gorm"
)

// BookRepositoryImpl implements BookRepository
type BookRepositoryImpl struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &BookRepositoryImpl{db: db}
}

func (r *BookRepositoryImpl) List(ctx context.Context) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).Order("title ASC").Find(&books).Error
	return books, err
}

func (r *BookRepositoryImpl) Get(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB {
			return db.Order("page_number ASC")
		}).
		Preload("Pages.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("id = ?", id).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *BookRepositoryImpl) PageCount(ctx context.Context, id uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Page{}).Where("book_id = ?", id).Count(&count).Error
	return int(count), err
}

func (r *BookRepositoryImpl) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Save replaces an existing book of the same title so catalog reloads are
// idempotent. Progress rows keep pointing at the same book id.
func (r *BookRepositoryImpl) Save(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Book
		err := tx.Where("title = ?", book.Title).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(book).Error
		case err != nil:
			return err
		}

		var pageIDs []uint
		if err := tx.Model(&models.Page{}).Where("book_id = ?", existing.ID).Pluck("id", &pageIDs).Error; err != nil {
			return err
		}
		if len(pageIDs) > 0 {
			if err := tx.Where("page_id IN ?", pageIDs).Delete(&models.Question{}).Error; err != nil {
				return err
			}
			if err := tx.Where("book_id = ?", existing.ID).Delete(&models.Page{}).Error; err != nil {
				return err
			}
		}

		book.ID = existing.ID
		book.CreatedAt = existing.CreatedAt
		if err := tx.Model(&existing).Updates(map[string]interface{}{"type": book.Type}).Error; err != nil {
			return err
		}
		for i := range book.Pages {
			book.Pages[i].BookID = existing.ID
		}
		if len(book.Pages) == 0 {
			return nil
		}
		return tx.Create(&book.Pages).Error
	})
}
