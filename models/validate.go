package models

import (
	"strings"
	"time"

	"github.com/openshelf/backend/validator"
)

// ApplyCreateDefaults fills the fields a create payload may omit: status
// defaults to available, language to en, and available_copies to the full
// stock (total_copies).
func (in *ItemInput) ApplyCreateDefaults() {
	if in.Status == "" {
		in.Status = StatusAvailable
	}
	if in.Language == "" {
		in.Language = "en"
	}
	if in.AvailableCopies == nil && in.TotalCopies != nil {
		c := *in.TotalCopies
		in.AvailableCopies = &c
	}
}

// Normalize trims whitespace off the identifying string fields.
func (in *ItemInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.Genre = strings.TrimSpace(in.Genre)
	in.Publisher = strings.TrimSpace(in.Publisher)
	in.Language = strings.TrimSpace(in.Language)
}

// ValidateCreate checks a create payload. Call Normalize and
// ApplyCreateDefaults first. ISBN uniqueness is checked separately against
// the store.
func ValidateCreate(v *validator.Validator, in *ItemInput) {
	validateCommon(v, in)

	if in.Status != "" {
		v.Check(validator.In(in.Status, ItemStatuses...), "status", "The selected status is invalid.")
	}
	if in.AvailableCopies != nil {
		v.Check(*in.AvailableCopies >= 0, "available_copies", "Available copies cannot be negative.")
		if in.TotalCopies != nil {
			v.Check(*in.AvailableCopies <= *in.TotalCopies, "available_copies", "Available copies cannot exceed total copies.")
		}
	}
}

// ValidateUpdate checks an update payload. Unlike create, status and
// available_copies are required and nothing is defaulted; available_copies
// is compared against the proposed total_copies, not the stored one.
func ValidateUpdate(v *validator.Validator, in *ItemInput) {
	validateCommon(v, in)

	v.Check(in.Status != "", "status", "Please select a status.")
	if in.Status != "" {
		v.Check(validator.In(in.Status, ItemStatuses...), "status", "The selected status is invalid.")
	}

	v.Check(in.AvailableCopies != nil, "available_copies", "Please specify available copies.")
	if in.AvailableCopies != nil {
		v.Check(*in.AvailableCopies >= 0, "available_copies", "Available copies cannot be negative.")
		if in.TotalCopies != nil {
			v.Check(*in.AvailableCopies <= *in.TotalCopies, "available_copies", "Available copies cannot exceed total copies.")
		}
	}
}

func validateCommon(v *validator.Validator, in *ItemInput) {
	v.Check(in.Title != "", "title", "The title is required.")
	v.Check(len(in.Title) <= 255, "title", "The title may not be greater than 255 characters.")

	v.Check(len(in.Author) <= 255, "author", "The author may not be greater than 255 characters.")
	v.Check(len(in.ISBN) <= 17, "isbn", "The ISBN may not be greater than 17 characters.")

	v.Check(in.Type != "", "type", "Please select an item type.")
	if in.Type != "" {
		v.Check(validator.In(in.Type, ItemTypes...), "type", "The selected type is invalid.")
	}

	v.Check(len(in.Publisher) <= 255, "publisher", "The publisher may not be greater than 255 characters.")
	v.Check(len(in.Genre) <= 255, "genre", "The genre may not be greater than 255 characters.")
	v.Check(len(in.Language) <= 10, "language", "The language may not be greater than 10 characters.")
	v.Check(len(in.CoverImage) <= 255, "cover_image", "The cover image may not be greater than 255 characters.")

	if in.PublicationYear != nil {
		v.Check(*in.PublicationYear >= 1000, "publication_year", "Publication year must be a valid year.")
		v.Check(*in.PublicationYear <= time.Now().Year()+1, "publication_year", "Publication year cannot be in the future.")
	}

	v.Check(in.TotalCopies != nil, "total_copies", "Please specify the number of copies.")
	if in.TotalCopies != nil {
		v.Check(*in.TotalCopies >= 1, "total_copies", "There must be at least 1 copy.")
		v.Check(*in.TotalCopies <= 100, "total_copies", "The total copies may not be greater than 100.")
	}

	if in.Rating != nil {
		v.Check(*in.Rating >= 0, "rating", "Rating cannot be negative.")
		v.Check(*in.Rating <= 5, "rating", "Rating cannot exceed 5.")
	}
}
