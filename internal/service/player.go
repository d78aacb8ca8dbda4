package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/domain"
)

// Phase is the module player's state-machine phase.
type Phase int

const (
	// PhaseViewing: the current page is shown; on quiz pages no answer has
	// been selected yet.
	PhaseViewing Phase = iota
	// PhaseAnswerSelected: a quiz answer is selected but not yet graded.
	PhaseAnswerSelected
	// PhaseChecked: the selected answer has been graded; see State.Correct.
	PhaseChecked
	// PhaseCompleted: the learner advanced past the last page. Terminal.
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseViewing:
		return "viewing"
	case PhaseAnswerSelected:
		return "answer_selected"
	case PhaseChecked:
		return "checked"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is the player's explicit state-machine value. Transitions happen
// only through Select and Next, which are pure functions over
// (State, pages); the surrounding PlayerService just applies them.
type State struct {
	Phase     Phase
	PageIndex int
	Correct   bool
	Selected  map[int64]bool
}

// NewState returns the initial state for a freshly fetched page list.
func NewState() State {
	return State{Phase: PhaseViewing, PageIndex: 0, Selected: map[int64]bool{}}
}

// Select records the learner's answer choice on the current quiz page.
// Selecting nothing returns the page to the unanswered viewing state.
// Once the answer has been graded the options are locked; changing the
// answer requires restarting the run.
func Select(state State, pages []domain.Page, optionIDs []int64) (State, error) {
	if state.Phase == PhaseCompleted {
		return state, fmt.Errorf("%w: module already completed", domain.ErrInvalidInput)
	}
	if state.Phase == PhaseChecked {
		return state, fmt.Errorf("%w: answer already checked", domain.ErrInvalidInput)
	}

	page := &pages[state.PageIndex]
	if page.Type != domain.PageTypeQuiz {
		return state, fmt.Errorf("%w: page %d is not a quiz", domain.ErrInvalidInput, state.PageIndex)
	}
	if len(optionIDs) > 1 && !page.MultiSelect() {
		return state, fmt.Errorf("%w: page accepts a single answer", domain.ErrInvalidInput)
	}

	valid := make(map[int64]bool, len(page.QuizOptions))
	for _, opt := range page.QuizOptions {
		valid[opt.ID] = true
	}

	selected := make(map[int64]bool, len(optionIDs))
	for _, id := range optionIDs {
		if !valid[id] {
			return state, fmt.Errorf("%w: unknown option %d", domain.ErrInvalidInput, id)
		}
		selected[id] = true
	}

	state.Selected = selected
	if len(selected) == 0 {
		state.Phase = PhaseViewing
	} else {
		state.Phase = PhaseAnswerSelected
	}
	return state, nil
}

// Next advances the player by one step:
//
//   - text/video page: move to the next page, or to Completed at the last.
//   - quiz page, answer selected but unchecked: grade instead of advancing.
//     The submitted option-ID set must equal the correct-option-ID set
//     exactly; there is no partial credit.
//   - quiz page, checked correct: advance.
//   - quiz page, checked incorrect: stay put; the learner retries by
//     restarting the run.
//
// Moving to a new page always resets the selection and the checked flag.
func Next(state State, pages []domain.Page) (State, error) {
	switch state.Phase {
	case PhaseCompleted:
		return state, fmt.Errorf("%w: module already completed", domain.ErrInvalidInput)
	case PhaseChecked:
		if !state.Correct {
			return state, fmt.Errorf("%w: answer was incorrect", domain.ErrInvalidInput)
		}
		return advance(state, pages), nil
	}

	page := &pages[state.PageIndex]
	if page.Type != domain.PageTypeQuiz {
		return advance(state, pages), nil
	}

	if state.Phase != PhaseAnswerSelected || len(state.Selected) == 0 {
		return state, fmt.Errorf("%w: select an answer first", domain.ErrInvalidInput)
	}

	state.Phase = PhaseChecked
	state.Correct = setsEqual(state.Selected, page.CorrectOptionIDs())
	return state, nil
}

func advance(state State, pages []domain.Page) State {
	state.Selected = map[int64]bool{}
	state.Correct = false
	if state.PageIndex >= len(pages)-1 {
		state.Phase = PhaseCompleted
		state.PageIndex = len(pages)
		return state
	}
	state.Phase = PhaseViewing
	state.PageIndex++
	return state
}

func setsEqual(a, b map[int64]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

// Run is one in-flight playback of a module by one browser session.
type Run struct {
	Module *domain.Module
	Pages  []domain.Page
	State  State

	reporting bool
}

// snapshot returns a copy that is safe to read after the service lock is
// released. Module and Pages never change once the run starts, so sharing
// them is fine; State carries a mutable map and is copied.
func (r *Run) snapshot() *Run {
	cp := *r
	cp.State.Selected = make(map[int64]bool, len(r.State.Selected))
	for id := range r.State.Selected {
		cp.State.Selected[id] = true
	}
	return &cp
}

// CurrentPage returns the page the run is positioned on, or nil once the
// run is completed.
func (r *Run) CurrentPage() *domain.Page {
	if r.State.Phase == PhaseCompleted || r.State.PageIndex >= len(r.Pages) {
		return nil
	}
	return &r.Pages[r.State.PageIndex]
}

type runKey struct {
	sessionID string
	moduleID  int64
}

// PlayerService drives module playback. Runs live in memory only, keyed by
// (session, module) — a restart of the process or of the run re-fetches
// content from the learning API, mirroring view-local state in the source
// application.
type PlayerService struct {
	api      *api.Client
	progress *ProgressService

	mu   sync.Mutex
	runs map[runKey]*Run
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(client *api.Client, progress *ProgressService) *PlayerService {
	return &PlayerService{
		api:      client,
		progress: progress,
		runs:     make(map[runKey]*Run),
	}
}

// Start fetches the module and its pages (sorted ascending by order) and
// begins a fresh run at the first page, replacing any existing run for the
// same module. Restarting is also the escape hatch after an incorrect
// checked answer.
func (s *PlayerService) Start(ctx context.Context, cred api.Session, sessionID string, moduleID int64) (*Run, error) {
	module, err := s.api.GetModule(ctx, cred, moduleID)
	if err != nil {
		return nil, err
	}
	pages, err := s.api.ListPages(ctx, cred, moduleID)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: module has no pages", domain.ErrInvalidInput)
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Order < pages[j].Order })

	run := &Run{Module: module, Pages: pages, State: NewState()}

	s.mu.Lock()
	s.runs[runKey{sessionID, moduleID}] = run
	snap := run.snapshot()
	s.mu.Unlock()
	return snap, nil
}

// Get returns a snapshot of the session's run for a module, if one is in
// flight.
func (s *PlayerService) Get(sessionID string, moduleID int64) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runKey{sessionID, moduleID}]
	if !ok {
		return nil, false
	}
	return run.snapshot(), true
}

// SelectAnswer applies the learner's answer choice to the run.
func (s *PlayerService) SelectAnswer(sessionID string, moduleID int64, optionIDs []int64) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runKey{sessionID, moduleID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	state, err := Select(run.State, run.Pages, optionIDs)
	if err != nil {
		return run.snapshot(), err
	}
	run.State = state
	return run.snapshot(), nil
}

// Advance applies one Next transition. When the run reaches Completed, a
// single 100% progress update is reported to the learning API and the run
// is dropped; the returned slice is the refreshed list of completed module
// IDs (nil when the run is still going). The run stays in place until the
// progress write lands, so after a transient upstream failure the learner
// stays on the last page and another Next retries only the report.
func (s *PlayerService) Advance(ctx context.Context, cred api.Session, sessionID string, moduleID int64) (*Run, []int64, error) {
	key := runKey{sessionID, moduleID}

	s.mu.Lock()
	run, ok := s.runs[key]
	if !ok {
		s.mu.Unlock()
		return nil, nil, domain.ErrNotFound
	}

	// A run still in the map at Completed is one whose report has not
	// landed yet; skip the transition and retry the report.
	if run.State.Phase != PhaseCompleted {
		state, err := Next(run.State, run.Pages)
		if err != nil {
			snap := run.snapshot()
			s.mu.Unlock()
			return snap, nil, err
		}
		run.State = state
	}
	if run.State.Phase != PhaseCompleted {
		snap := run.snapshot()
		s.mu.Unlock()
		return snap, nil, nil
	}
	if run.reporting {
		snap := run.snapshot()
		s.mu.Unlock()
		return snap, nil, fmt.Errorf("%w: completion report already in flight", domain.ErrInvalidInput)
	}
	run.reporting = true
	snap := run.snapshot()
	s.mu.Unlock()

	if _, err := s.progress.CompleteModule(ctx, cred, moduleID); err != nil {
		s.mu.Lock()
		run.reporting = false
		s.mu.Unlock()
		return snap, nil, fmt.Errorf("report completion: %w", err)
	}

	s.mu.Lock()
	// A Start issued while the report was in flight replaced the run;
	// only drop our own.
	if s.runs[key] == run {
		delete(s.runs, key)
	}
	s.mu.Unlock()

	ids, err := s.progress.CompletedModules(ctx, cred)
	if err != nil {
		return snap, nil, fmt.Errorf("refresh completed modules: %w", err)
	}
	return snap, ids, nil
}

// Abandon drops a session's run without reporting anything.
func (s *PlayerService) Abandon(sessionID string, moduleID int64) {
	s.mu.Lock()
	delete(s.runs, runKey{sessionID, moduleID})
	s.mu.Unlock()
}
