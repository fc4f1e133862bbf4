// Package catalog loads the storybook catalog and seed accounts from YAML.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ilawngbayan/storybooks/internal/common/validation"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
)

// Catalog is the YAML document shape
type Catalog struct {
	Users []UserEntry `yaml:"users" validate:"dive"`
	Books []BookEntry `yaml:"books" validate:"dive"`
}

type UserEntry struct {
	ID       uint   `yaml:"id" validate:"required,min=1"`
	Name     string `yaml:"name" validate:"required"`
	Role     string `yaml:"role" validate:"required,oneof=student teacher admin"`
	Approved bool   `yaml:"approved"`
}

type BookEntry struct {
	Title string      `yaml:"title" validate:"required"`
	Type  string      `yaml:"type"`
	Pages []PageEntry `yaml:"pages" validate:"required,min=1,dive"`
}

// PageEntry is numbered by its position in the list, starting at 1.
type PageEntry struct {
	Content   string          `yaml:"content" validate:"required"`
	ImageURL  string          `yaml:"image_url"`
	Questions []QuestionEntry `yaml:"questions" validate:"dive"`
}

type QuestionEntry struct {
	Question      string   `yaml:"question" validate:"required"`
	AnswerType    string   `yaml:"answer_type" validate:"omitempty,oneof=text multiple_choice"`
	CorrectAnswer string   `yaml:"correct_answer" validate:"required"`
	Options       []string `yaml:"options"`
}

// Load reads and validates the catalog at path
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// maxOptions is the number of option letters, A to Z.
const maxOptions = 26

// Validate checks struct constraints plus the rules tags cannot express:
// unique titles and user ids, and multiple choice questions carrying options.
func (c *Catalog) Validate() error {
	if errs := validation.Validate(c); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
		}
		return fmt.Errorf("invalid catalog: %s", strings.Join(msgs, "; "))
	}

	users := make(map[uint]struct{}, len(c.Users))
	for _, u := range c.Users {
		if _, dup := users[u.ID]; dup {
			return fmt.Errorf("invalid catalog: duplicate user id %d", u.ID)
		}
		users[u.ID] = struct{}{}
	}

	titles := make(map[string]struct{}, len(c.Books))
	for _, b := range c.Books {
		if _, dup := titles[b.Title]; dup {
			return fmt.Errorf("invalid catalog: duplicate book title %q", b.Title)
		}
		titles[b.Title] = struct{}{}

		for i, p := range b.Pages {
			for _, q := range p.Questions {
				if q.AnswerType != models.AnswerMultipleChoice {
					continue
				}
				if err := validation.ValidateIntRange(len(q.Options), 2, maxOptions); err != nil {
					return fmt.Errorf("invalid catalog: %q page %d: option count: %w", b.Title, i+1, err)
				}
			}
		}
	}
	return nil
}

// Seed writes the catalog in one transaction. Books are matched by title so
// reseeding keeps book ids stable.
func (c *Catalog) Seed(ctx context.Context, repos *repository.Registry) error {
	return repos.Transaction(ctx, func(tx *repository.Registry) error {
		for _, u := range c.Users {
			user := &models.User{ID: u.ID, Name: u.Name, Role: u.Role, Approved: u.Approved}
			if err := tx.Users.Save(ctx, user); err != nil {
				return fmt.Errorf("seed user %d: %w", u.ID, err)
			}
		}

		for _, b := range c.Books {
			book, err := b.model()
			if err != nil {
				return err
			}
			if err := tx.Books.Save(ctx, book); err != nil {
				return fmt.Errorf("seed book %q: %w", b.Title, err)
			}
			logger.Info("catalog book loaded",
				zap.String("title", book.Title),
				zap.Uint("book_id", book.ID),
				zap.Int("pages", len(book.Pages)),
			)
		}
		return nil
	})
}

func (b BookEntry) model() (*models.Book, error) {
	book := &models.Book{Title: b.Title, Type: b.Type}
	if book.Type == "" {
		book.Type = "storybook"
	}

	for i, p := range b.Pages {
		page := models.Page{PageNumber: i + 1, Content: p.Content, ImageURL: p.ImageURL}
		for _, q := range p.Questions {
			question := models.Question{
				QuestionText:  q.Question,
				AnswerType:    q.AnswerType,
				CorrectAnswer: q.CorrectAnswer,
			}
			if question.AnswerType == "" {
				question.AnswerType = models.AnswerText
			}
			if len(q.Options) > 0 {
				raw, err := json.Marshal(q.Options)
				if err != nil {
					return nil, fmt.Errorf("encode options for %q page %d: %w", b.Title, i+1, err)
				}
				question.Options = datatypes.JSON(raw)
			}
			page.Questions = append(page.Questions, question)
		}
		book.Pages = append(book.Pages, page)
	}
	return book, nil
}
