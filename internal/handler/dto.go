package handler

import (
	"time"

	"github.com/pocketlearn/pocketlearn/internal/domain"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	IsAdmin      bool    `json:"isAdmin"`
	SavedModules []int64 `json:"savedModules"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsAdmin:      u.IsAdmin,
		SavedModules: u.SavedModules,
	}
}

// ModuleDTO is the JSON representation of a module.
type ModuleDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Progress    int    `json:"progress"`
	CreatedAt   string `json:"createdAt"`
}

func toModuleDTO(m domain.Module) ModuleDTO {
	return ModuleDTO{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Progress:    m.Progress,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
}

func toModuleDTOs(modules []domain.Module) []ModuleDTO {
	dtos := make([]ModuleDTO, len(modules))
	for i, m := range modules {
		dtos[i] = toModuleDTO(m)
	}
	return dtos
}

// QuizOptionDTO is an answer choice as shown to a learner. Correctness is
// deliberately absent; grading happens server-side.
type QuizOptionDTO struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// PageDTO is a page as shown to a learner.
type PageDTO struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Content     string          `json:"content"`
	Order       int             `json:"order"`
	MultiSelect bool            `json:"multiSelect,omitempty"`
	QuizOptions []QuizOptionDTO `json:"quizOptions,omitempty"`
}

func toPageDTO(p *domain.Page) PageDTO {
	dto := PageDTO{
		ID:      p.ID,
		Type:    p.Type,
		Content: p.Content,
		Order:   p.Order,
	}
	if p.Type == domain.PageTypeQuiz {
		dto.MultiSelect = p.MultiSelect()
		for _, opt := range p.QuizOptions {
			dto.QuizOptions = append(dto.QuizOptions, QuizOptionDTO{ID: opt.ID, Text: opt.Text})
		}
	}
	return dto
}

// AdminQuizOptionDTO includes the correctness flag for authoring forms.
type AdminQuizOptionDTO struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// AdminPageDTO is a page as shown in the admin editor.
type AdminPageDTO struct {
	ID          int64                `json:"id"`
	ModuleID    int64                `json:"moduleId"`
	Type        string               `json:"type"`
	Content     string               `json:"content"`
	Order       int                  `json:"order"`
	QuizOptions []AdminQuizOptionDTO `json:"quizOptions,omitempty"`
	UpdatedAt   string               `json:"updatedAt"`
}

func toAdminPageDTO(p domain.Page) AdminPageDTO {
	dto := AdminPageDTO{
		ID:        p.ID,
		ModuleID:  p.ModuleID,
		Type:      p.Type,
		Content:   p.Content,
		Order:     p.Order,
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
	for _, opt := range p.QuizOptions {
		dto.QuizOptions = append(dto.QuizOptions, AdminQuizOptionDTO{
			ID:        opt.ID,
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
		})
	}
	return dto
}

func toAdminPageDTOs(pages []domain.Page) []AdminPageDTO {
	dtos := make([]AdminPageDTO, len(pages))
	for i, p := range pages {
		dtos[i] = toAdminPageDTO(p)
	}
	return dtos
}

// ProgressDTO is the JSON representation of a progress record.
type ProgressDTO struct {
	ID       int64 `json:"id"`
	ModuleID int64 `json:"moduleId"`
	Progress int   `json:"progress"`
}

func toProgressDTOs(records []domain.Progress) []ProgressDTO {
	dtos := make([]ProgressDTO, len(records))
	for i, rec := range records {
		dtos[i] = ProgressDTO{ID: rec.ID, ModuleID: rec.ModuleID, Progress: rec.Percent}
	}
	return dtos
}

// RunDTO is the JSON representation of a playback run.
type RunDTO struct {
	Module    ModuleDTO `json:"module"`
	PageCount int       `json:"pageCount"`
	PageIndex int       `json:"pageIndex"`
	Phase     string    `json:"phase"`
	Correct   *bool     `json:"correct,omitempty"`
	Page      *PageDTO  `json:"page,omitempty"`
	Selected  []int64   `json:"selected,omitempty"`
}

func toRunDTO(run *service.Run) RunDTO {
	dto := RunDTO{
		Module:    toModuleDTO(*run.Module),
		PageCount: len(run.Pages),
		PageIndex: run.State.PageIndex,
		Phase:     run.State.Phase.String(),
	}
	if run.State.Phase == service.PhaseChecked {
		correct := run.State.Correct
		dto.Correct = &correct
	}
	if page := run.CurrentPage(); page != nil {
		p := toPageDTO(page)
		dto.Page = &p
	}
	for id := range run.State.Selected {
		dto.Selected = append(dto.Selected, id)
	}
	return dto
}
