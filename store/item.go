package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/openshelf/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertItem(ctx context.Context, item *models.Item) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	res, err := db.Items().InsertOne(ctx, item)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	item.ID = id
	return id, nil
}

func (db *DB) ItemByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	var item models.Item
	err := db.Items().FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem replaces the stored document with item, keeping created_at and
// refreshing updated_at.
func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	res, err := db.Items().ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteItem(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Items().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchItems returns one newest-first page matching f, plus the total
// match count. A page beyond the last yields an empty slice, not an error.
func (db *DB) SearchItems(ctx context.Context, f ItemFilter) (*ItemPage, error) {
	filter := searchFilter(f)

	total, err := db.Items().CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(searchSort()).
		SetSkip(int64(page-1) * int64(f.PerPage)).
		SetLimit(int64(f.PerPage))

	cur, err := db.Items().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []models.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}

	return &ItemPage{Items: items, Total: total, Page: page, PerPage: f.PerPage}, nil
}

// BorrowItem performs the borrow transition as one conditional
// FindOneAndUpdate: the available_copies > 0 guard and the decrement are a
// single atomic operation, so concurrent borrows on the last copy cannot
// both succeed.
func (db *DB) BorrowItem(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	var item models.Item
	err := db.Items().
		FindOneAndUpdate(ctx, borrowFilter(id), borrowUpdate(), borrowOptions()).
		Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the item does not exist or it is out of stock.
		if _, lookupErr := db.ItemByID(ctx, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DistinctTypes returns the sorted distinct type values across the whole
// catalog, independent of any active filter.
func (db *DB) DistinctTypes(ctx context.Context) ([]string, error) {
	return db.distinctStrings(ctx, "type", bson.M{})
}

// DistinctGenres returns the sorted distinct non-empty genres across the
// whole catalog.
func (db *DB) DistinctGenres(ctx context.Context) ([]string, error) {
	return db.distinctStrings(ctx, "genre", bson.M{"genre": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}})
}

func (db *DB) distinctStrings(ctx context.Context, field string, filter bson.M) ([]string, error) {
	raw, err := db.Items().Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (db *DB) CatalogStats(ctx context.Context) (*CatalogStats, error) {
	var stats CatalogStats
	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.TotalItems, bson.M{}},
		{&stats.AvailableItems, bson.M{"status": models.StatusAvailable}},
		{&stats.Books, bson.M{"type": models.TypeBook}},
		{&stats.Journals, bson.M{"type": models.TypeJournal}},
		{&stats.Audio, bson.M{"type": models.TypeAudio}},
		{&stats.Video, bson.M{"type": models.TypeVideo}},
	}
	for _, c := range counts {
		n, err := db.Items().CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &stats, nil
}

func (db *DB) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	catalog, err := db.CatalogStats(ctx)
	if err != nil {
		return nil, err
	}
	stats := DashboardStats{
		TotalItems:     catalog.TotalItems,
		AvailableItems: catalog.AvailableItems,
		Books:          catalog.Books,
		Journals:       catalog.Journals,
		Audio:          catalog.Audio,
		Video:          catalog.Video,
	}
	if stats.BorrowedItems, err = db.Items().CountDocuments(ctx, bson.M{"status": models.StatusBorrowed}); err != nil {
		return nil, err
	}
	if stats.ReservedItems, err = db.Items().CountDocuments(ctx, bson.M{"status": models.StatusReserved}); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ISBNInUse reports whether any item other than exclude carries isbn. The
// unique sparse index is the backstop for races between check and insert.
func (db *DB) ISBNInUse(ctx context.Context, isbn string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"isbn": isbn}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := db.Items().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) SetCoverImage(ctx context.Context, id primitive.ObjectID, coverImage, s3Key string) (*models.Item, error) {
	update := bson.M{"$set": bson.M{
		"cover_image":  coverImage,
		"cover_s3_key": s3Key,
		"updated_at":   time.Now().UTC(),
	}}
	var item models.Item
	err := db.Items().
		FindOneAndUpdate(ctx, bson.M{"_id": id}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
