package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item types.
const (
	TypeBook    = "book"
	TypeJournal = "journal"
	TypeAudio   = "audio"
	TypeVideo   = "video"
)

// Item statuses. Status is set explicitly and is not derived from
// available_copies; borrowing only flips it to borrowed when the counter
// reaches zero.
const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
	StatusReserved  = "reserved"
)

var (
	ItemTypes    = []string{TypeBook, TypeJournal, TypeAudio, TypeVideo}
	ItemStatuses = []string{StatusAvailable, StatusBorrowed, StatusReserved}
)

// Item is a catalog entry: a book, journal, audio or video record.
// Optional string fields are stored with omitempty so the sparse unique
// index on isbn never sees an empty value, and absent genres stay absent.
type Item struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Author          string             `bson:"author,omitempty" json:"author,omitempty"`
	ISBN            string             `bson:"isbn,omitempty" json:"isbn,omitempty"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Type            string             `bson:"type" json:"type"`
	Status          string             `bson:"status" json:"status"`
	Publisher       string             `bson:"publisher,omitempty" json:"publisher,omitempty"`
	PublicationYear *int               `bson:"publication_year,omitempty" json:"publication_year,omitempty"`
	Genre           string             `bson:"genre,omitempty" json:"genre,omitempty"`
	Language        string             `bson:"language" json:"language"`
	CoverImage      string             `bson:"cover_image,omitempty" json:"cover_image,omitempty"`
	CoverS3Key      string             `bson:"cover_s3_key,omitempty" json:"-"`
	TotalCopies     int                `bson:"total_copies" json:"total_copies"`
	AvailableCopies int                `bson:"available_copies" json:"available_copies"`
	Rating          *float64           `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// ItemInput is the create/update payload. Numeric fields are pointers so a
// missing field can be told apart from an explicit zero.
type ItemInput struct {
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	ISBN            string   `json:"isbn"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	Status          string   `json:"status"`
	Publisher       string   `json:"publisher"`
	PublicationYear *int     `json:"publication_year"`
	Genre           string   `json:"genre"`
	Language        string   `json:"language"`
	CoverImage      string   `json:"cover_image"`
	TotalCopies     *int     `json:"total_copies"`
	AvailableCopies *int     `json:"available_copies"`
	Rating          *float64 `json:"rating"`
}

// Apply copies the payload onto item. Defaults must already have been
// applied (create) or the required fields validated (update).
func (in *ItemInput) Apply(item *Item) {
	item.Title = in.Title
	item.Author = in.Author
	item.ISBN = in.ISBN
	item.Description = in.Description
	item.Type = in.Type
	item.Status = in.Status
	item.Publisher = in.Publisher
	item.PublicationYear = in.PublicationYear
	item.Genre = in.Genre
	item.Language = in.Language
	item.CoverImage = in.CoverImage
	if in.TotalCopies != nil {
		item.TotalCopies = *in.TotalCopies
	}
	if in.AvailableCopies != nil {
		item.AvailableCopies = *in.AvailableCopies
	}
	item.Rating = in.Rating
}
