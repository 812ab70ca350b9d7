package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openshelf/backend/models"
	"github.com/openshelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory store.ItemStore/store.UserStore used by the
// handler tests. It mirrors the mongo implementation's semantics, including
// the atomic borrow guard (here a mutex instead of a conditional update).
type memStore struct {
	mu    sync.Mutex
	items []*models.Item
	users []*models.User
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) InsertItem(_ context.Context, item *models.Item) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = primitive.NewObjectID()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.UpdatedAt = item.CreatedAt
	cp := *item
	m.items = append(m.items, &cp)
	return item.ID, nil
}

func (m *memStore) find(id primitive.ObjectID) *models.Item {
	for _, it := range m.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (m *memStore) ItemByID(_ context.Context, id primitive.ObjectID) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it := m.find(id); it != nil {
		cp := *it
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpdateItem(_ context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.find(item.ID)
	if existing == nil {
		return store.ErrNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	*existing = *item
	return nil
}

func (m *memStore) DeleteItem(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func matchesSearch(it *models.Item, term string, scope store.SearchScope) bool {
	term = strings.ToLower(term)
	fields := []string{it.Title, it.Author, it.Description, it.Genre}
	if scope == store.ScopeDashboard {
		fields = []string{it.Title, it.Author, it.ISBN}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func (m *memStore) SearchItems(_ context.Context, f store.ItemFilter) (*store.ItemPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type indexed struct {
		item *models.Item
		pos  int
	}
	matched := []indexed{}
	for pos, it := range m.items {
		if f.Search != "" && !matchesSearch(it, f.Search, f.Scope) {
			continue
		}
		if f.Type != "" && f.Type != "all" && it.Type != f.Type {
			continue
		}
		if f.Status != "" && f.Status != "all" && it.Status != f.Status {
			continue
		}
		if f.Genre != "" && f.Genre != "all" && it.Genre != f.Genre {
			continue
		}
		matched = append(matched, indexed{item: it, pos: pos})
	}

	// Newest first, ties broken by insertion order descending. Same order
	// as the mongo sort on (created_at, _id).
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].item.CreatedAt.Equal(matched[j].item.CreatedAt) {
			return matched[i].item.CreatedAt.After(matched[j].item.CreatedAt)
		}
		return matched[i].pos > matched[j].pos
	})

	page := f.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * f.PerPage
	end := start + f.PerPage
	items := []models.Item{}
	for i := start; i < end && i < len(matched); i++ {
		items = append(items, *matched[i].item)
	}
	return &store.ItemPage{
		Items:   items,
		Total:   int64(len(matched)),
		Page:    page,
		PerPage: f.PerPage,
	}, nil
}

func (m *memStore) BorrowItem(_ context.Context, id primitive.ObjectID) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.find(id)
	if it == nil {
		return nil, store.ErrNotFound
	}
	if it.AvailableCopies <= 0 {
		return nil, store.ErrUnavailable
	}
	it.AvailableCopies--
	if it.AvailableCopies == 0 {
		it.Status = models.StatusBorrowed
	}
	it.UpdatedAt = time.Now().UTC()
	cp := *it
	return &cp, nil
}

func (m *memStore) DistinctTypes(_ context.Context) ([]string, error) {
	return m.distinct(func(it *models.Item) string { return it.Type })
}

func (m *memStore) DistinctGenres(_ context.Context) ([]string, error) {
	return m.distinct(func(it *models.Item) string { return it.Genre })
}

func (m *memStore) distinct(field func(*models.Item) string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, it := range m.items {
		v := field(it)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) CatalogStats(_ context.Context) (*store.CatalogStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s store.CatalogStats
	for _, it := range m.items {
		s.TotalItems++
		if it.Status == models.StatusAvailable {
			s.AvailableItems++
		}
		switch it.Type {
		case models.TypeBook:
			s.Books++
		case models.TypeJournal:
			s.Journals++
		case models.TypeAudio:
			s.Audio++
		case models.TypeVideo:
			s.Video++
		}
	}
	return &s, nil
}

func (m *memStore) DashboardStats(_ context.Context) (*store.DashboardStats, error) {
	catalog, _ := m.CatalogStats(context.Background())
	m.mu.Lock()
	defer m.mu.Unlock()
	s := store.DashboardStats{
		TotalItems:     catalog.TotalItems,
		AvailableItems: catalog.AvailableItems,
		Books:          catalog.Books,
		Journals:       catalog.Journals,
		Audio:          catalog.Audio,
		Video:          catalog.Video,
	}
	for _, it := range m.items {
		switch it.Status {
		case models.StatusBorrowed:
			s.BorrowedItems++
		case models.StatusReserved:
			s.ReservedItems++
		}
	}
	return &s, nil
}

func (m *memStore) ISBNInUse(_ context.Context, isbn string, exclude primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ISBN == isbn && it.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) SetCoverImage(_ context.Context, id primitive.ObjectID, coverImage, s3Key string) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.find(id)
	if it == nil {
		return nil, store.ErrNotFound
	}
	it.CoverImage = coverImage
	it.CoverS3Key = s3Key
	cp := *it
	return &cp, nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = primitive.NewObjectID()
	cp := *user
	m.users = append(m.users, &cp)
	return user.ID, nil
}

func (m *memStore) MarkUserVerified(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.Verified = true
			return nil
		}
	}
	return store.ErrNotFound
}
