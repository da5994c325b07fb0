package models

import (
	"time"
)

// UserRole distinguishes the two parties of an invoice.
type UserRole string

const (
	RoleFreelancer UserRole = "freelancer"
	RoleClient     UserRole = "client"
)

// User represents an account holder: either a freelancer issuing invoices
// or a client receiving them.
type User struct {
	Base         `bson:",inline"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"` // Store hash, not plaintext
	Role         UserRole  `bson:"role" json:"role"`
	HourlyRate   float64   `bson:"hourly_rate,omitempty" json:"hourly_rate,omitempty"` // Default rate for new projects
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
