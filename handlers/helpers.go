package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/backend/models"
	"github.com/openshelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// validationFailed returns the per-field messages with the 422 status the
// form frontend expects.
func validationFailed(w http.ResponseWriter, errs map[string]string) {
	respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": errs})
}

// itemID pulls the {id} route param. An unparsable id can never name an
// item, so it is reported as not found rather than bad request.
func itemID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// paginated is the page envelope: the slice plus everything a client needs
// to render the pager and the prev/next links. The links carry every active
// query parameter and only change page.
type paginated struct {
	Data        []models.Item `json:"data"`
	CurrentPage int           `json:"current_page"`
	LastPage    int           `json:"last_page"`
	PerPage     int           `json:"per_page"`
	Total       int64         `json:"total"`
	From        int64         `json:"from"`
	To          int64         `json:"to"`
	PrevPageURL string        `json:"prev_page_url,omitempty"`
	NextPageURL string        `json:"next_page_url,omitempty"`
}

func paginate(page *store.ItemPage, requestURL *url.URL) paginated {
	lastPage := int((page.Total + int64(page.PerPage) - 1) / int64(page.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	p := paginated{
		Data:        page.Items,
		CurrentPage: page.Page,
		LastPage:    lastPage,
		PerPage:     page.PerPage,
		Total:       page.Total,
	}
	if len(page.Items) > 0 {
		p.From = int64(page.Page-1)*int64(page.PerPage) + 1
		p.To = p.From + int64(len(page.Items)) - 1
	}
	if page.Page > 1 {
		p.PrevPageURL = pageURL(requestURL, page.Page-1)
	}
	if page.Page < lastPage {
		p.NextPageURL = pageURL(requestURL, page.Page+1)
	}
	return p
}

func pageURL(requestURL *url.URL, page int) string {
	q := requestURL.Query()
	q.Set("page", strconv.Itoa(page))
	return requestURL.Path + "?" + q.Encode()
}
