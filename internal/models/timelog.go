package models

import (
	"time"

	"freelanceflow/internal/utils"
)

// TimeLogStatus is the billing state of a time log.
//
// Invariant: Billed == true iff Status is billed or paid iff InvoiceID is set.
// A log with Status unbilled must have InvoiceID unset and Billed false.
type TimeLogStatus string

const (
	TimeLogStatusUnbilled TimeLogStatus = "unbilled"
	TimeLogStatusBilled   TimeLogStatus = "billed"
	TimeLogStatusPaid     TimeLogStatus = "paid"
)

// TimeLog is a worked interval logged by a user against a project.
type TimeLog struct {
	Base          `bson:",inline"`
	ProjectID     utils.SixID   `bson:"project_id" json:"project_id"`
	UserID        utils.SixID   `bson:"user_id" json:"user_id"`
	Description   string        `bson:"description" json:"description"`
	StartTime     time.Time     `bson:"start_time" json:"start_time"`
	EndTime       time.Time     `bson:"end_time" json:"end_time"`
	DurationHours float64       `bson:"duration_hours" json:"duration_hours"` // Derived from start/end, 2 decimals
	Billed        bool          `bson:"billed" json:"billed"`
	Status        TimeLogStatus `bson:"status" json:"status"`
	InvoiceID     *utils.SixID  `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updated_at"`
}
