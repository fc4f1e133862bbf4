package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Roles carried in the bearer token and on the user row.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Answer types for page questions.
const (
	AnswerText           = "text"
	AnswerMultipleChoice = "multiple_choice"
)

// Who closed a reading session.
const (
	ClosedByClient = "client"
	ClosedByBeacon = "beacon"
	ClosedByReaper = "reaper"
)

// User is the minimal account row needed to scope progress reads.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Role      string    `gorm:"not null;default:student" json:"role"`
	Approved  bool      `gorm:"not null;default:false" json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
}

// Book is a storybook. Pages are immutable while a session is open.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;uniqueIndex" json:"title"`
	Type      string    `json:"type"`
	Pages     []Page    `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"pages,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is one page of a book; PageNumber is 1-based and contiguous.
type Page struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"not null;uniqueIndex:idx_page_book_number" json:"bookId"`
	PageNumber int        `gorm:"not null;uniqueIndex:idx_page_book_number" json:"pageNumber"`
	Content    string     `gorm:"type:text" json:"content"`
	ImageURL   string     `json:"imageUrl"`
	Questions  []Question `gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE" json:"questions"`
}

// HasQuestions reports whether the page gates navigation.
func (p *Page) HasQuestions() bool {
	return len(p.Questions) > 0
}

// Question gates the page it belongs to.
type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PageID        uint           `gorm:"not null;index" json:"pageId"`
	QuestionText  string         `gorm:"type:text;not null" json:"questionText"`
	AnswerType    string         `gorm:"not null;default:text" json:"answerType"`
	CorrectAnswer string         `gorm:"not null" json:"correctAnswer"`
	Options       datatypes.JSON `json:"options"`
}

// OptionList decodes the stored options. Malformed JSON yields no options.
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// ReadingSession is one open or closed reading interval for a (user, book).
type ReadingSession struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"userId"`
	User           *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BookID         uint       `gorm:"not null;index" json:"bookId"`
	Book           *Book      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StartTime      time.Time  `gorm:"not null;index" json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	ElapsedSeconds *int64     `json:"elapsedSeconds"`
	ClosedBy       string     `json:"closedBy,omitempty"`
}

// IsOpen reports whether the session still lacks an end time.
func (s *ReadingSession) IsOpen() bool {
	return s.EndTime == nil
}

// Progress is the cumulative reading state of a (user, book) pair.
type Progress struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex:idx_progress_user_book" json:"userId"`
	User             *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BookID           uint       `gorm:"not null;uniqueIndex:idx_progress_user_book" json:"bookId"`
	Book             *Book      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CurrentPage      int        `gorm:"not null;default:0" json:"currentPage"`
	PercentComplete  int        `gorm:"not null;default:0" json:"percentComplete"`
	TotalReadingTime int64      `gorm:"not null;default:0" json:"totalReadingTime"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	LastReadAt       time.Time  `json:"lastReadAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (Progress) TableName() string { return "progress" }

// PlatformSetting is a persisted platform-wide key/value.
type PlatformSetting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedBy uint      `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// API Request/Response DTOs

type SessionRequest struct {
	BookID uint `json:"bookId" binding:"required,min=1"`
}

// BeaconRequest carries the token in the body because sendBeacon cannot set headers.
type BeaconRequest struct {
	BookID uint   `json:"bookId" binding:"required,min=1"`
	Token  string `json:"token" binding:"required"`
}

type StartSessionResponse struct {
	Success   bool      `json:"success"`
	SessionID uint      `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
	Resumed   bool      `json:"resumed"`
}

type EndSessionResponse struct {
	Success      bool      `json:"success"`
	TotalSeconds int64     `json:"totalSeconds"`
	SessionID    uint      `json:"sessionId"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
}

type ActiveSessionResponse struct {
	Success bool            `json:"success"`
	Session *ReadingSession `json:"session"`
}

type SessionHistoryResponse struct {
	Sessions []*ReadingSession `json:"sessions"`
}

// SoftFailure is the {success:false} shape for non-fatal not-found conditions.
type SoftFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ProgressRequest struct {
	BookID          uint  `json:"bookId" binding:"required,min=1"`
	CurrentPage     int   `json:"currentPage" binding:"min=0"`
	PercentComplete int   `json:"percentComplete"`
	UserID          *uint `json:"userId,omitempty"`
}

type ProgressResponse struct {
	Progress *Progress `json:"progress"`
}

type ProgressListResponse struct {
	Progress []*Progress `json:"progress"`
}

type CompleteResponse struct {
	Success  bool      `json:"success"`
	Progress *Progress `json:"progress"`
}

type BookSummary struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	PageCount int    `json:"pageCount"`
}

type BookListResponse struct {
	Books []*BookSummary `json:"books"`
}

type BookResponse struct {
	Book *Book `json:"book"`
}

type MaintenanceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type MaintenanceResponse struct {
	MaintenanceMode bool `json:"maintenanceMode"`
}
