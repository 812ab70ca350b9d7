package store

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// catalogSearchFields and dashboardSearchFields are the OR branches of the
// free-text predicate. The public catalog searches descriptions and genres;
// the dashboard searches ISBNs instead.
var (
	catalogSearchFields   = []string{"title", "author", "description", "genre"}
	dashboardSearchFields = []string{"title", "author", "isbn"}
)

const filterAll = "all"

// searchFilter builds the find predicate for f. A blank search term is
// simply omitted; categorical filters equal to "" or "all" are omitted too.
func searchFilter(f ItemFilter) bson.M {
	filter := bson.M{}

	if f.Search != "" {
		fields := catalogSearchFields
		if f.Scope == ScopeDashboard {
			fields = dashboardSearchFields
		}
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := make([]bson.M, 0, len(fields))
		for _, field := range fields {
			or = append(or, bson.M{field: re})
		}
		filter["$or"] = or
	}

	if f.Type != "" && f.Type != filterAll {
		filter["type"] = f.Type
	}
	if f.Status != "" && f.Status != filterAll {
		filter["status"] = f.Status
	}
	if f.Genre != "" && f.Genre != filterAll {
		filter["genre"] = f.Genre
	}

	return filter
}

// searchSort orders newest-first with _id as the insertion-order tiebreak.
func searchSort() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}

// borrowFilter matches the item only while it still has stock, so the
// decrement below can never drive the counter negative.
func borrowFilter(id primitive.ObjectID) bson.M {
	return bson.M{
		"_id":              id,
		"available_copies": bson.M{"$gt": 0},
	}
}

// borrowUpdate decrements available_copies and flips status to borrowed
// exactly when the pre-image counter was 1. Expressed as a pipeline update
// so the check and the write are a single server-side operation.
func borrowUpdate() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"available_copies": bson.M{"$add": bson.A{"$available_copies", -1}},
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$available_copies", 1}},
				"borrowed",
				"$status",
			}},
			"updated_at": "$$NOW",
		}}},
	}
}

func borrowOptions() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
