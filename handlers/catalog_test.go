package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/backend/logger"
	"github.com/openshelf/backend/models"
	"github.com/openshelf/backend/store"
)

func newCatalogRouter(ms *memStore) *chi.Mux {
	h := &CatalogHandler{Items: ms, Log: logger.NewNop()}
	r := chi.NewRouter()
	r.Get("/health-check", h.HealthCheck)
	r.Get("/", h.Index)
	r.Get("/library/{id}", h.Show)
	r.Post("/library/{id}/borrow", h.Borrow)
	return r
}

func seedItem(t *testing.T, ms *memStore, item models.Item) models.Item {
	t.Helper()
	if item.Status == "" {
		item.Status = models.StatusAvailable
	}
	if item.Language == "" {
		item.Language = "en"
	}
	if item.Type == "" {
		item.Type = models.TypeBook
	}
	if _, err := ms.InsertItem(context.Background(), &item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func doJSON(t *testing.T, r http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, body
}

func TestHealthCheck(t *testing.T) {
	r := newCatalogRouter(newMemStore())
	rec, body := doJSON(t, r, http.MethodGet, "/health-check")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field: want=ok got=%v", body["status"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}
}

func TestCatalogSearchIncludesDescription(t *testing.T) {
	ms := newMemStore()
	seedItem(t, ms, models.Item{
		Title:       "Some Book",
		Description: "an extraordinary xylophone appears",
	})
	r := newCatalogRouter(ms)

	rec, body := doJSON(t, r, http.MethodGet, "/?search=xylophone")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	items := body["items"].(map[string]interface{})
	if got := items["total"].(float64); got != 1 {
		t.Fatalf("total: want=1 got=%v", got)
	}

	// The same term must not match on the dashboard, which does not search
	// descriptions.
	lh := &LibrarianHandler{Items: ms, Log: logger.NewNop()}
	lr := chi.NewRouter()
	lr.Get("/librarian", lh.Dashboard)
	rec, body = doJSON(t, lr, http.MethodGet, "/librarian?search=xylophone")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	items = body["items"].(map[string]interface{})
	if got := items["total"].(float64); got != 0 {
		t.Fatalf("dashboard total: want=0 got=%v", got)
	}
}

func TestCatalogFiltersAndDropdownsIndependent(t *testing.T) {
	ms := newMemStore()
	seedItem(t, ms, models.Item{Title: "B1", Type: models.TypeBook, Genre: "Fiction"})
	seedItem(t, ms, models.Item{Title: "J1", Type: models.TypeJournal, Genre: "Science"})
	seedItem(t, ms, models.Item{Title: "A1", Type: models.TypeAudio, Genre: "Self-Help"})
	r := newCatalogRouter(ms)

	rec, body := doJSON(t, r, http.MethodGet, "/?type=book")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	items := body["items"].(map[string]interface{})
	if got := items["total"].(float64); got != 1 {
		t.Fatalf("filtered total: want=1 got=%v", got)
	}

	// Dropdown option sets cover the whole catalog, not the filtered subset.
	if got := len(body["types"].([]interface{})); got != 3 {
		t.Fatalf("types: want=3 got=%d", got)
	}
	if got := len(body["genres"].([]interface{})); got != 3 {
		t.Fatalf("genres: want=3 got=%d", got)
	}

	stats := body["stats"].(map[string]interface{})
	if got := stats["total_items"].(float64); got != 3 {
		t.Fatalf("stats total: want=3 got=%v", got)
	}
}

func TestCatalogSentinelAllDisablesFilter(t *testing.T) {
	ms := newMemStore()
	seedItem(t, ms, models.Item{Title: "B1", Type: models.TypeBook})
	seedItem(t, ms, models.Item{Title: "J1", Type: models.TypeJournal})
	r := newCatalogRouter(ms)

	_, body := doJSON(t, r, http.MethodGet, "/?type=all&status=all&genre=all")
	items := body["items"].(map[string]interface{})
	if got := items["total"].(float64); got != 2 {
		t.Fatalf("total: want=2 got=%v", got)
	}
}

func TestCatalogOutOfRangePage(t *testing.T) {
	ms := newMemStore()
	for i := 0; i < 3; i++ {
		seedItem(t, ms, models.Item{Title: fmt.Sprintf("Item %d", i)})
	}
	r := newCatalogRouter(ms)

	rec, body := doJSON(t, r, http.MethodGet, "/?page=99")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	items := body["items"].(map[string]interface{})
	if got := len(items["data"].([]interface{})); got != 0 {
		t.Fatalf("data: want empty, got %d items", got)
	}
	if got := items["total"].(float64); got != 3 {
		t.Fatalf("total: want=3 got=%v", got)
	}
	if got := items["last_page"].(float64); got != 1 {
		t.Fatalf("last_page: want=1 got=%v", got)
	}
}

func TestCatalogPaginationLinksPreserveFilters(t *testing.T) {
	ms := newMemStore()
	for i := 0; i < 30; i++ {
		seedItem(t, ms, models.Item{Title: fmt.Sprintf("Book %d", i), Genre: "Fiction"})
	}
	r := newCatalogRouter(ms)

	_, body := doJSON(t, r, http.MethodGet, "/?genre=Fiction&page=2")
	items := body["items"].(map[string]interface{})
	if got := items["current_page"].(float64); got != 2 {
		t.Fatalf("current_page: want=2 got=%v", got)
	}
	if got := items["last_page"].(float64); got != 3 {
		t.Fatalf("last_page: want=3 got=%v", got)
	}
	if got := items["per_page"].(float64); got != 12 {
		t.Fatalf("per_page: want=12 got=%v", got)
	}
	next := items["next_page_url"].(string)
	prev := items["prev_page_url"].(string)
	for name, link := range map[string]string{"next": next, "prev": prev} {
		if !strings.Contains(link, "genre=Fiction") {
			t.Fatalf("%s link lost the genre filter: %s", name, link)
		}
	}
	if !strings.Contains(next, "page=3") || !strings.Contains(prev, "page=1") {
		t.Fatalf("page links wrong: next=%s prev=%s", next, prev)
	}
}

func TestShowUnknownItem(t *testing.T) {
	r := newCatalogRouter(newMemStore())
	rec, _ := doJSON(t, r, http.MethodGet, "/library/64f000000000000000000000")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	rec, _ = doJSON(t, r, http.MethodGet, "/library/not-a-hex-id")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
}

func TestBorrowScenario(t *testing.T) {
	ms := newMemStore()
	item := seedItem(t, ms, models.Item{
		Title:           "Item A",
		TotalCopies:     2,
		AvailableCopies: 1,
		Status:          models.StatusAvailable,
	})
	r := newCatalogRouter(ms)

	rec, body := doJSON(t, r, http.MethodPost, "/library/"+item.ID.Hex()+"/borrow")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if body["message"] != "Item borrowed successfully!" {
		t.Fatalf("message: got %v", body["message"])
	}
	got := body["item"].(map[string]interface{})
	if got["available_copies"].(float64) != 0 {
		t.Fatalf("available_copies: want=0 got=%v", got["available_copies"])
	}
	if got["status"] != models.StatusBorrowed {
		t.Fatalf("status: want=borrowed got=%v", got["status"])
	}

	// A second borrow finds no stock and must not mutate anything.
	rec, body = doJSON(t, r, http.MethodPost, "/library/"+item.ID.Hex()+"/borrow")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second borrow status: want=%d got=%d", http.StatusConflict, rec.Code)
	}
	if body["error"] != "This item is not available for borrowing." {
		t.Fatalf("error message: got %v", body["error"])
	}
	after, err := ms.ItemByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.AvailableCopies != 0 || after.Status != models.StatusBorrowed {
		t.Fatalf("state changed by failed borrow: copies=%d status=%s", after.AvailableCopies, after.Status)
	}
}

func TestBorrowKeepsStatusWhenCopiesRemain(t *testing.T) {
	ms := newMemStore()
	item := seedItem(t, ms, models.Item{
		Title:           "Reserved Item",
		TotalCopies:     3,
		AvailableCopies: 2,
		Status:          models.StatusReserved,
	})
	r := newCatalogRouter(ms)

	_, body := doJSON(t, r, http.MethodPost, "/library/"+item.ID.Hex()+"/borrow")
	got := body["item"].(map[string]interface{})
	if got["available_copies"].(float64) != 1 {
		t.Fatalf("available_copies: want=1 got=%v", got["available_copies"])
	}
	// Status only flips on the transition to zero.
	if got["status"] != models.StatusReserved {
		t.Fatalf("status: want=reserved got=%v", got["status"])
	}
}

func TestBorrowUnknownItem(t *testing.T) {
	r := newCatalogRouter(newMemStore())
	rec, _ := doJSON(t, r, http.MethodPost, "/library/64f000000000000000000000/borrow")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
}

func TestConcurrentBorrowsNeverOverdraw(t *testing.T) {
	const copies = 5
	const attempts = 20

	ms := newMemStore()
	item := seedItem(t, ms, models.Item{
		Title:           "Contended",
		TotalCopies:     copies,
		AvailableCopies: copies,
		Status:          models.StatusAvailable,
	})

	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ms.BorrowItem(context.Background(), item.ID); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	n := 0
	for range successes {
		n++
	}
	if n != copies {
		t.Fatalf("successful borrows: want=%d got=%d", copies, n)
	}
	after, err := ms.ItemByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.AvailableCopies != 0 {
		t.Fatalf("available_copies: want=0 got=%d", after.AvailableCopies)
	}
	if after.Status != models.StatusBorrowed {
		t.Fatalf("status: want=borrowed got=%s", after.Status)
	}
}

func TestSearchOrderNewestFirst(t *testing.T) {
	ms := newMemStore()
	old := models.Item{Title: "Old", CreatedAt: time.Now().Add(-time.Hour)}
	seedItem(t, ms, old)
	seedItem(t, ms, models.Item{Title: "New", CreatedAt: time.Now()})

	page, err := ms.SearchItems(context.Background(), store.ItemFilter{Page: 1, PerPage: 12})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Items[0].Title != "New" || page.Items[1].Title != "Old" {
		t.Fatalf("order wrong: got %q then %q", page.Items[0].Title, page.Items[1].Title)
	}
}
