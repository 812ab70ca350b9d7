// Command seed populates the library_items collection with the featured
// catalog plus randomized filler items. Intended for development and demo
// environments.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"github.com/openshelf/backend/config"
	"github.com/openshelf/backend/models"
	"github.com/openshelf/backend/store"
)

func main() {
	drop := flag.Bool("drop", false, "drop the items collection before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer db.Disconnect(context.Background())

	if *drop {
		if err := db.Items().Drop(ctx); err != nil {
			log.Fatal("drop:", err)
		}
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("indexes:", err)
	}

	total := 0
	for _, item := range featuredItems() {
		item := item
		if _, err := db.InsertItem(ctx, &item); err != nil {
			log.Fatal("insert featured:", err)
		}
		total++
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, batch := range []struct {
		itemType string
		count    int
	}{
		{models.TypeBook, 15},
		{models.TypeJournal, 8},
		{models.TypeAudio, 6},
		{models.TypeVideo, 4},
	} {
		for i := 0; i < batch.count; i++ {
			item := randomItem(rng, batch.itemType)
			if _, err := db.InsertItem(ctx, &item); err != nil {
				log.Fatal("insert random:", err)
			}
			total++
		}
	}

	log.Printf("seeded %d items", total)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func featuredItems() []models.Item {
	return []models.Item{
		{
			Title:           "The Great Gatsby",
			Author:          "F. Scott Fitzgerald",
			ISBN:            "9780743273565",
			Description:     "A classic American novel set in the summer of 1922, exploring themes of decadence, idealism, resistance to change, and excess.",
			Type:            models.TypeBook,
			Status:          models.StatusAvailable,
			Publisher:       "Scribner",
			PublicationYear: intPtr(1925),
			Genre:           "Fiction",
			Language:        "en",
			TotalCopies:     3,
			AvailableCopies: 2,
			Rating:          floatPtr(4.2),
		},
		{
			Title:           "Nature Scientific Journal",
			Author:          "Nature Publishing Group",
			Description:     "Leading international weekly journal of science publishing the finest peer-reviewed research in all fields of science and technology.",
			Type:            models.TypeJournal,
			Status:          models.StatusAvailable,
			Publisher:       "Nature Publishing Group",
			PublicationYear: intPtr(2024),
			Genre:           "Science",
			Language:        "en",
			TotalCopies:     5,
			AvailableCopies: 5,
			Rating:          floatPtr(4.8),
		},
		{
			Title:           "Atomic Habits (Audiobook)",
			Author:          "James Clear",
			Description:     "An easy and proven way to build good habits and break bad ones. This audiobook provides practical strategies for forming good habits.",
			Type:            models.TypeAudio,
			Status:          models.StatusAvailable,
			Publisher:       "Avery",
			PublicationYear: intPtr(2018),
			Genre:           "Self-Help",
			Language:        "en",
			TotalCopies:     2,
			AvailableCopies: 1,
			Rating:          floatPtr(4.7),
		},
		{
			Title:           "The Planet Earth Documentary Series",
			Author:          "BBC Natural History Unit",
			Description:     "A comprehensive documentary series showcasing the natural world in unprecedented detail and beauty.",
			Type:            models.TypeVideo,
			Status:          models.StatusAvailable,
			Publisher:       "BBC",
			PublicationYear: intPtr(2006),
			Genre:           "Documentary",
			Language:        "en",
			TotalCopies:     1,
			AvailableCopies: 1,
			Rating:          floatPtr(4.9),
		},
		{
			Title:           "To Kill a Mockingbird",
			Author:          "Harper Lee",
			ISBN:            "9780061120084",
			Description:     "A gripping tale of racial injustice and childhood innocence in the American South.",
			Type:            models.TypeBook,
			Status:          models.StatusBorrowed,
			Publisher:       "J.B. Lippincott & Co.",
			PublicationYear: intPtr(1960),
			Genre:           "Fiction",
			Language:        "en",
			TotalCopies:     2,
			AvailableCopies: 0,
			Rating:          floatPtr(4.3),
		},
		{
			Title:           "Harvard Business Review",
			Description:     "The leading destination for smart management thinking, covering leadership, strategy, and innovation.",
			Type:            models.TypeJournal,
			Status:          models.StatusAvailable,
			Publisher:       "Harvard Business Publishing",
			PublicationYear: intPtr(2024),
			Genre:           "Business",
			Language:        "en",
			TotalCopies:     3,
			AvailableCopies: 3,
			Rating:          floatPtr(4.5),
		},
	}
}

var (
	genresByType = map[string][]string{
		models.TypeBook:    {"Fiction", "Mystery", "Science Fiction", "Biography", "History"},
		models.TypeJournal: {"Science", "Business", "Medicine", "Technology"},
		models.TypeAudio:   {"Self-Help", "Fiction", "History", "Language Learning"},
		models.TypeVideo:   {"Documentary", "Education", "Science"},
	}
	titleWords = []string{
		"Silent", "Hidden", "Golden", "Distant", "Broken", "Endless", "Quiet",
		"River", "Mountain", "Garden", "Harbor", "Winter", "Morning", "Shadow",
	}
	publishers = []string{
		"Penguin Random House", "HarperCollins", "Macmillan", "Hachette",
		"Oxford University Press", "Cambridge University Press",
	}
	languages = []string{"en", "es", "fr", "de", "it"}
	statuses  = []string{models.StatusAvailable, models.StatusBorrowed, models.StatusReserved}
)

func randomItem(rng *rand.Rand, itemType string) models.Item {
	genres := genresByType[itemType]
	totalCopies := 1 + rng.Intn(5)
	availableCopies := rng.Intn(totalCopies + 1)

	item := models.Item{
		Title:           randomTitle(rng, itemType),
		Author:          randomAuthor(rng),
		Description:     "Part of the seeded demo catalog.",
		Type:            itemType,
		Status:          statuses[rng.Intn(len(statuses))],
		Publisher:       publishers[rng.Intn(len(publishers))],
		PublicationYear: intPtr(1950 + rng.Intn(75)),
		Genre:           genres[rng.Intn(len(genres))],
		Language:        languages[rng.Intn(len(languages))],
		TotalCopies:     totalCopies,
		AvailableCopies: availableCopies,
	}
	if itemType == models.TypeBook {
		item.ISBN = randomISBN13(rng)
	}
	if rng.Float64() < 0.7 {
		item.Rating = floatPtr(float64(10+rng.Intn(41)) / 10)
	}
	return item
}

func randomTitle(rng *rand.Rand, itemType string) string {
	title := fmt.Sprintf("The %s %s", titleWords[rng.Intn(len(titleWords))], titleWords[rng.Intn(len(titleWords))])
	switch itemType {
	case models.TypeJournal:
		return title + " Quarterly"
	case models.TypeAudio:
		return title + " (Audio)"
	case models.TypeVideo:
		return title + " (Video)"
	}
	return title
}

func randomAuthor(rng *rand.Rand) string {
	first := []string{"Alice", "Marcus", "Elena", "Samuel", "Ingrid", "Tomas", "Priya", "Noah"}
	last := []string{"Walker", "Lindqvist", "Moreau", "Okafor", "Tanaka", "Rivera", "Hansen"}
	return first[rng.Intn(len(first))] + " " + last[rng.Intn(len(last))]
}

// randomISBN13 builds a 978-prefixed ISBN with a valid check digit so the
// unique index gets realistic values.
func randomISBN13(rng *rand.Rand) string {
	digits := make([]int, 13)
	digits[0], digits[1], digits[2] = 9, 7, 8
	for i := 3; i < 12; i++ {
		digits[i] = rng.Intn(10)
	}
	sum := 0
	for i := 0; i < 12; i++ {
		if i%2 == 0 {
			sum += digits[i]
		} else {
			sum += 3 * digits[i]
		}
	}
	digits[12] = (10 - sum%10) % 10
	out := ""
	for _, d := range digits {
		out += fmt.Sprintf("%d", d)
	}
	return out
}
