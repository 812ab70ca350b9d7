package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a librarian account. Borrowing requires any authenticated user;
// the management routes additionally require Verified.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // bcrypt hash
	Verified  bool               `bson:"verified" json:"verified"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
