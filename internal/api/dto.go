package api

import (
	"time"

	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// Wire payloads for the learning API. Field names follow the API's
// snake_case JSON; conversion to domain types happens here so the rest of
// the codebase never sees wire shapes.

type userPayload struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsAdmin      bool    `json:"is_admin"`
	SavedModules []int64 `json:"saved_modules"`
}

func (p userPayload) toDomain() *domain.User {
	return &domain.User{
		ID:           p.ID,
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IsAdmin:      p.IsAdmin,
		SavedModules: p.SavedModules,
	}
}

type modulePayload struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p modulePayload) toDomain() domain.Module {
	return domain.Module{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Progress:    p.Progress,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type quizOptionPayload struct {
	ID        int64  `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type pagePayload struct {
	ID          int64               `json:"id"`
	Module      int64               `json:"module"`
	Type        string              `json:"type"`
	Content     string              `json:"content"`
	Order       int                 `json:"order"`
	QuizOptions []quizOptionPayload `json:"quiz_options"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (p pagePayload) toDomain() domain.Page {
	page := domain.Page{
		ID:        p.ID,
		ModuleID:  p.Module,
		Type:      p.Type,
		Content:   p.Content,
		Order:     p.Order,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, opt := range p.QuizOptions {
		page.QuizOptions = append(page.QuizOptions, domain.QuizOption{
			ID:        opt.ID,
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
		})
	}
	return page
}

type progressPayload struct {
	ID             int64     `json:"id"`
	User           int64     `json:"user"`
	Module         int64     `json:"module"`
	Progress       int       `json:"progress"`
	LastPageViewed int       `json:"last_page_viewed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p progressPayload) toDomain() domain.Progress {
	return domain.Progress{
		ID:             p.ID,
		UserID:         p.User,
		ModuleID:       p.Module,
		Percent:        p.Progress,
		LastPageViewed: p.LastPageViewed,
		UpdatedAt:      p.UpdatedAt,
	}
}
