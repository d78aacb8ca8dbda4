package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/pocketlearn/pocketlearn/internal/api"
	"github.com/pocketlearn/pocketlearn/internal/domain"
	"github.com/pocketlearn/pocketlearn/internal/service"
)

// contentUpstream fakes the module/page surface with mutable state so the
// reorder calls are observable.
type contentUpstream struct {
	mu         sync.Mutex
	orders     map[int64]int // page ID → order
	pageWrites []int64       // page IDs in PUT order
	failWrites bool
	saved      map[int64]bool
}

func newContentUpstream(orders map[int64]int) *contentUpstream {
	return &contentUpstream{orders: orders, saved: make(map[int64]bool)}
}

func (u *contentUpstream) pagesJSON() []map[string]any {
	ids := make([]int64, 0, len(u.orders))
	for id := range u.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	pages := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		pages = append(pages, map[string]any{
			"id": id, "module": 3, "type": "text", "content": "c", "order": u.orders[id],
		})
	}
	return pages
}

func (u *contentUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /modules/3/pages/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		json.NewEncoder(w).Encode(u.pagesJSON())
	})
	mux.HandleFunc("PUT /modules/3/pages/{pageID}/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()

		pageID, _ := strconv.ParseInt(r.PathValue("pageID"), 10, 64)
		if u.failWrites {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		u.orders[pageID] = int(body["order"].(float64))
		u.pageWrites = append(u.pageWrites, pageID)
		json.NewEncoder(w).Encode(map[string]any{
			"id": pageID, "module": 3, "type": "text", "content": "c", "order": u.orders[pageID],
		})
	})
	mux.HandleFunc("POST /modules/{id}/save/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		u.saved[id] = true
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
	})
	mux.HandleFunc("POST /modules/{id}/unsave/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		delete(u.saved, id)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "unsaved"})
	})
	mux.HandleFunc("GET /modules/saved/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		out := []map[string]any{}
		for id := range u.saved {
			out = append(out, map[string]any{"id": id, "title": "m"})
		}
		json.NewEncoder(w).Encode(out)
	})
	return mux
}

func newTestContentService(t *testing.T, upstream *contentUpstream) *service.ContentService {
	t.Helper()
	srv := httptest.NewServer(upstream.handler())
	t.Cleanup(srv.Close)
	return service.NewContentService(api.New(srv.URL, nil))
}

func TestContentService_MovePageSwapsExactlyTwoOrders(t *testing.T) {
	upstream := newContentUpstream(map[int64]int{10: 0, 11: 1, 12: 2, 13: 3})
	content := newTestContentService(t, upstream)
	cred := &staticHandle{access: "tok"}
	ctx := context.Background()

	pages, err := content.ListPages(ctx, cred, 3)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}

	// Move the page at index 2 up one position.
	reordered, err := content.MovePage(ctx, cred, 3, pages, 2, -1)
	if err != nil {
		t.Fatalf("MovePage: %v", err)
	}

	want := map[int64]int{10: 0, 11: 2, 12: 1, 13: 3}
	for id, order := range want {
		if upstream.orders[id] != order {
			t.Fatalf("page %d: order = %d, want %d (orders: %v)", id, upstream.orders[id], order, upstream.orders)
		}
	}
	if len(upstream.pageWrites) != 2 {
		t.Fatalf("expected exactly two page updates, got %v", upstream.pageWrites)
	}

	// The returned list is reconciled from the server, in the new order.
	gotIDs := make([]int64, len(reordered))
	for i, p := range reordered {
		gotIDs[i] = p.ID
	}
	wantIDs := []int64{10, 12, 11, 13}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("reconciled order = %v, want %v", gotIDs, wantIDs)
		}
	}
}

func TestContentService_MovePageFailureRollsBack(t *testing.T) {
	upstream := newContentUpstream(map[int64]int{10: 0, 11: 1, 12: 2, 13: 3})
	content := newTestContentService(t, upstream)
	cred := &staticHandle{access: "tok"}
	ctx := context.Background()

	pages, err := content.ListPages(ctx, cred, 3)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}

	upstream.failWrites = true
	returned, err := content.MovePage(ctx, cred, 3, pages, 2, -1)
	if err == nil {
		t.Fatal("expected error from failed reorder")
	}

	// The caller gets the pre-move order back to roll back its view.
	for i := range pages {
		if returned[i].ID != pages[i].ID || returned[i].Order != pages[i].Order {
			t.Fatalf("expected pre-move order returned, got %+v", returned)
		}
	}
}

func TestContentService_MovePageOutOfRange(t *testing.T) {
	upstream := newContentUpstream(map[int64]int{10: 0, 11: 1})
	content := newTestContentService(t, upstream)
	cred := &staticHandle{access: "tok"}
	ctx := context.Background()

	pages, err := content.ListPages(ctx, cred, 3)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}

	if _, err := content.MovePage(ctx, cred, 3, pages, 0, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput moving first page up, got %v", err)
	}
	if _, err := content.MovePage(ctx, cred, 3, pages, 1, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput moving last page down, got %v", err)
	}
}

func TestContentService_SaveThenUnsaveRestoresMembership(t *testing.T) {
	upstream := newContentUpstream(map[int64]int{})
	content := newTestContentService(t, upstream)
	cred := &staticHandle{access: "tok"}
	ctx := context.Background()

	before, err := content.SavedModules(ctx, cred)
	if err != nil {
		t.Fatalf("SavedModules: %v", err)
	}

	if err := content.SaveModule(ctx, cred, 7); err != nil {
		t.Fatalf("SaveModule: %v", err)
	}
	during, err := content.SavedModules(ctx, cred)
	if err != nil {
		t.Fatalf("SavedModules: %v", err)
	}
	if len(during) != len(before)+1 {
		t.Fatalf("expected one more saved module, got %d", len(during))
	}

	if err := content.UnsaveModule(ctx, cred, 7); err != nil {
		t.Fatalf("UnsaveModule: %v", err)
	}
	after, err := content.SavedModules(ctx, cred)
	if err != nil {
		t.Fatalf("SavedModules: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected membership restored, got %d modules", len(after))
	}
}

func TestValidatePage_QuizRules(t *testing.T) {
	upstream := newContentUpstream(map[int64]int{})
	content := newTestContentService(t, upstream)
	cred := &staticHandle{access: "tok"}
	ctx := context.Background()

	tests := []struct {
		name  string
		input api.PageInput
	}{
		{"too few options", api.PageInput{Type: "quiz", QuizOptions: []api.QuizOptionInput{{Text: "a", IsCorrect: true}}}},
		{"no correct option", api.PageInput{Type: "quiz", QuizOptions: []api.QuizOptionInput{{Text: "a"}, {Text: "b"}}}},
		{"blank option text", api.PageInput{Type: "quiz", QuizOptions: []api.QuizOptionInput{{Text: " "}, {Text: "b", IsCorrect: true}}}},
		{"options on text page", api.PageInput{Type: "text", QuizOptions: []api.QuizOptionInput{{Text: "a"}}}},
		{"unknown type", api.PageInput{Type: "audio"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ve *domain.ValidationError
			if _, err := content.CreatePage(ctx, cred, 3, tc.input); !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}
