package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
)

// playbackStub extends the auth stub with one module, one text page, one
// quiz page, and a progress surface that records writes.
type playbackStub struct {
	mu             sync.Mutex
	progressWrites int
	progress       []map[string]any
}

func (s *playbackStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /token/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access": "learner-access", "refresh": "learner-refresh"})
	})
	mux.HandleFunc("GET /users/me/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "email": "learner@example.com", "first_name": "Lea", "is_admin": false,
		})
	})

	mux.HandleFunc("GET /modules/9/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 9, "title": "Knots", "category": "crafts"})
	})
	mux.HandleFunc("GET /modules/9/pages/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 91, "module": 9, "type": "quiz", "content": "Which knot holds?", "order": 1, "quiz_options": []map[string]any{
				{"id": 911, "text": "Bowline", "is_correct": true},
				{"id": 912, "text": "Granny", "is_correct": false},
			}},
			{"id": 90, "module": 9, "type": "text", "content": "Welcome", "order": 0},
		})
	})

	mux.HandleFunc("GET /progress/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		json.NewEncoder(w).Encode(s.progress)
	})
	mux.HandleFunc("POST /progress/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		record := map[string]any{
			"id":       int64(len(s.progress) + 1),
			"module":   int64(body["module"].(float64)),
			"progress": int(body["progress"].(float64)),
		}
		s.progress = append(s.progress, record)
		s.progressWrites++
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(record)
	})

	return mux
}

type runResponse struct {
	Run struct {
		PageCount int    `json:"pageCount"`
		PageIndex int    `json:"pageIndex"`
		Phase     string `json:"phase"`
		Correct   *bool  `json:"correct"`
		Page *struct {
			ID          int64             `json:"id"`
			QuizOptions []json.RawMessage `json:"quizOptions"`
		} `json:"page"`
	} `json:"run"`
	Completed []int64 `json:"completed"`
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (*http.Response, runResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	resp, err := client.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out runResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s response: %v", url, err)
	}
	return resp, out
}

// TestPlaybackFlow walks a full run over HTTP: start, read a text page,
// answer the quiz correctly, and complete the module.
func TestPlaybackFlow(t *testing.T) {
	stub := &playbackStub{}
	srv, client := newTestApp(t, stub.handler())
	login(t, srv, client, "learner@example.com")

	playerURL := srv.URL + "/modules/9/player"

	resp, state := postJSON(t, client, playerURL, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d", resp.StatusCode)
	}
	if state.Run.PageCount != 2 || state.Run.PageIndex != 0 {
		t.Fatalf("start: unexpected run %+v", state.Run)
	}
	// Pages are ordered by their order field, not upstream order.
	if state.Run.Page == nil || state.Run.Page.ID != 90 {
		t.Fatalf("start: expected text page 90 first, got %+v", state.Run.Page)
	}

	// Advance past the text page onto the quiz.
	_, state = postJSON(t, client, playerURL+"/next", nil)
	if state.Run.Page == nil || state.Run.Page.ID != 91 {
		t.Fatalf("next: expected quiz page 91, got %+v", state.Run.Page)
	}
	// Learner-facing options never reveal correctness.
	if len(state.Run.Page.QuizOptions) != 2 {
		t.Fatalf("expected 2 quiz options, got %d", len(state.Run.Page.QuizOptions))
	}
	for _, opt := range state.Run.Page.QuizOptions {
		var raw map[string]any
		if err := json.Unmarshal(opt, &raw); err != nil {
			t.Fatalf("decode quiz option: %v", err)
		}
		if _, leaked := raw["isCorrect"]; leaked {
			t.Fatal("quiz option exposes correctness to the learner")
		}
	}

	// Select the right answer and grade it.
	_, state = postJSON(t, client, playerURL+"/answer", map[string][]int64{"optionIds": {911}})
	if state.Run.Phase != "answer_selected" {
		t.Fatalf("answer: phase = %q", state.Run.Phase)
	}
	_, state = postJSON(t, client, playerURL+"/next", nil)
	if state.Run.Phase != "checked" || state.Run.Correct == nil || !*state.Run.Correct {
		t.Fatalf("grade: unexpected run %+v", state.Run)
	}

	// A second next completes the run and reports progress once.
	_, state = postJSON(t, client, playerURL+"/next", nil)
	if state.Run.Phase != "completed" {
		t.Fatalf("complete: phase = %q", state.Run.Phase)
	}
	if len(state.Completed) != 1 || state.Completed[0] != 9 {
		t.Fatalf("complete: completed = %v", state.Completed)
	}
	if stub.progressWrites != 1 {
		t.Fatalf("expected exactly one progress write, got %d", stub.progressWrites)
	}

	// The run is gone once completed.
	getResp, err := client.Get(playerURL)
	if err != nil {
		t.Fatalf("GET player: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after completion, got %d", getResp.StatusCode)
	}
}

// TestPlaybackFlow_WrongAnswerLocksPage exercises the retry rule: a wrong
// graded answer keeps the learner on the page until the run restarts.
func TestPlaybackFlow_WrongAnswerLocksPage(t *testing.T) {
	stub := &playbackStub{}
	srv, client := newTestApp(t, stub.handler())
	login(t, srv, client, "learner@example.com")

	playerURL := srv.URL + "/modules/9/player"

	postJSON(t, client, playerURL, nil)
	postJSON(t, client, playerURL+"/next", nil) // onto the quiz

	_, state := postJSON(t, client, playerURL+"/answer", map[string][]int64{"optionIds": {912}})
	if state.Run.Phase != "answer_selected" {
		t.Fatalf("answer: phase = %q", state.Run.Phase)
	}
	_, state = postJSON(t, client, playerURL+"/next", nil)
	if state.Run.Phase != "checked" || state.Run.Correct == nil || *state.Run.Correct {
		t.Fatalf("grade: unexpected run %+v", state.Run)
	}

	// Neither advancing nor changing the answer is allowed now.
	resp, _ := postJSON(t, client, playerURL+"/next", nil)
	if resp.StatusCode == http.StatusOK {
		t.Fatal("advancing past a wrong answer should fail")
	}
	resp, _ = postJSON(t, client, playerURL+"/answer", map[string][]int64{"optionIds": {911}})
	if resp.StatusCode == http.StatusOK {
		t.Fatal("changing a graded answer should fail")
	}

	// Restarting the run resets to the first page.
	resp, state = postJSON(t, client, playerURL, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("restart: expected 201, got %d", resp.StatusCode)
	}
	if state.Run.PageIndex != 0 || state.Run.Phase != "viewing" {
		t.Fatalf("restart: unexpected run %+v", state.Run)
	}
	if stub.progressWrites != 0 {
		t.Fatalf("no progress should be written, got %d writes", stub.progressWrites)
	}
}

func TestPlaybackFlow_AbandonDropsRun(t *testing.T) {
	stub := &playbackStub{}
	srv, client := newTestApp(t, stub.handler())
	login(t, srv, client, "learner@example.com")

	playerURL := srv.URL + "/modules/9/player"
	postJSON(t, client, playerURL, nil)

	req, _ := http.NewRequest(http.MethodDelete, playerURL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE player: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("abandon: expected 204, got %d", resp.StatusCode)
	}

	getResp, err := client.Get(playerURL)
	if err != nil {
		t.Fatalf("GET player: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after abandon, got %d", getResp.StatusCode)
	}
	if stub.progressWrites != 0 {
		t.Fatalf("abandon must not write progress, got %d writes", stub.progressWrites)
	}
}
