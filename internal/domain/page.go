package domain

import "time"

// Page types as declared by the learning API.
const (
	PageTypeText  = "text"
	PageTypeVideo = "video"
	PageTypeQuiz  = "quiz"
)

// Page is one unit of module content. Order defines the page's position
// within its module (0-based; contiguous by convention, not enforced).
// QuizOptions is populated only for quiz pages.
type Page struct {
	ID          int64
	ModuleID    int64
	Type        string
	Content     string
	Order       int
	QuizOptions []QuizOption
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QuizOption is one selectable answer on a quiz page.
type QuizOption struct {
	ID        int64
	Text      string
	IsCorrect bool
}

// CorrectOptionIDs returns the set of option IDs flagged correct.
func (p *Page) CorrectOptionIDs() map[int64]bool {
	ids := make(map[int64]bool)
	for _, opt := range p.QuizOptions {
		if opt.IsCorrect {
			ids[opt.ID] = true
		}
	}
	return ids
}

// MultiSelect reports whether the page offers multi-select answering,
// which is the case only when more than one option is marked correct.
func (p *Page) MultiSelect() bool {
	return len(p.CorrectOptionIDs()) > 1
}
