package store

import (
	"context"
	"errors"

	"github.com/openshelf/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when an item or user id matches nothing.
	ErrNotFound = errors.New("store: not found")
	// ErrUnavailable is returned by Borrow when no copies are left.
	ErrUnavailable = errors.New("store: no available copies")
)

// SearchScope selects which fields free-text search matches.
type SearchScope int

const (
	// ScopeCatalog matches title, author, description and genre.
	ScopeCatalog SearchScope = iota
	// ScopeDashboard matches title, author and isbn.
	ScopeDashboard
)

// ItemFilter describes one page of a filtered item listing. A blank Search
// disables free-text matching; a categorical value of "" or "all" disables
// that filter.
type ItemFilter struct {
	Search  string
	Type    string
	Status  string
	Genre   string
	Scope   SearchScope
	Page    int
	PerPage int
}

// ItemPage is one page of results plus the total match count.
type ItemPage struct {
	Items   []models.Item
	Total   int64
	Page    int
	PerPage int
}

// CatalogStats are the aggregate counts shown on the public catalog.
type CatalogStats struct {
	TotalItems     int64 `json:"total_items"`
	AvailableItems int64 `json:"available_items"`
	Books          int64 `json:"books"`
	Journals       int64 `json:"journals"`
	Audio          int64 `json:"audio"`
	Video          int64 `json:"video"`
}

// DashboardStats adds the per-status breakdown the librarian dashboard shows.
type DashboardStats struct {
	TotalItems     int64 `json:"total_items"`
	AvailableItems int64 `json:"available_items"`
	BorrowedItems  int64 `json:"borrowed_items"`
	ReservedItems  int64 `json:"reserved_items"`
	Books          int64 `json:"books"`
	Journals       int64 `json:"journals"`
	Audio          int64 `json:"audio"`
	Video          int64 `json:"video"`
}

// ItemStore is the typed repository over catalog items.
type ItemStore interface {
	InsertItem(ctx context.Context, item *models.Item) (primitive.ObjectID, error)
	ItemByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id primitive.ObjectID) error
	SearchItems(ctx context.Context, f ItemFilter) (*ItemPage, error)

	// BorrowItem atomically decrements available_copies when it is positive
	// and flips status to borrowed on the transition to zero. Returns the
	// updated item, ErrNotFound, or ErrUnavailable.
	BorrowItem(ctx context.Context, id primitive.ObjectID) (*models.Item, error)

	DistinctTypes(ctx context.Context) ([]string, error)
	DistinctGenres(ctx context.Context) ([]string, error)
	CatalogStats(ctx context.Context) (*CatalogStats, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)

	// ISBNInUse reports whether another item (excluding exclude, when
	// non-zero) already carries isbn.
	ISBNInUse(ctx context.Context, isbn string, exclude primitive.ObjectID) (bool, error)

	SetCoverImage(ctx context.Context, id primitive.ObjectID, coverImage, s3Key string) (*models.Item, error)
}

// UserStore is the typed repository over librarian accounts.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	MarkUserVerified(ctx context.Context, id primitive.ObjectID) error
}
