package models

import (
	"time"

	"freelanceflow/internal/utils"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceItem is one line of an invoice, derived from a single time log
// at creation time. TimeLogID is kept on the item so older documents whose
// logs array drifted can still be reconciled on delete.
type InvoiceItem struct {
	Description string       `bson:"description" json:"description"`
	Hours       float64      `bson:"hours" json:"hours"`
	HourlyRate  float64      `bson:"hourly_rate" json:"hourly_rate"`
	Amount      float64      `bson:"amount" json:"amount"`
	TimeLogID   *utils.SixID `bson:"time_log_id,omitempty" json:"time_log_id,omitempty"`
}

// Invoice is a billing document issued by a freelancer to a client for a
// set of time logs on one project.
//
// Invariants: TotalAmount = Subtotal + TaxAmount; Subtotal = sum of item
// amounts; every log in LogIDs is billed while the invoice exists and
// reverts to unbilled when the invoice is deleted.
type Invoice struct {
	Base          `bson:",inline"`
	InvoiceNumber string        `bson:"invoice_number" json:"invoice_number"` // Unique, sequential, INV-NNNNN
	ProjectID     utils.SixID   `bson:"project_id" json:"project_id"`
	ClientID      utils.SixID   `bson:"client_id" json:"client_id"`
	FreelancerID  utils.SixID   `bson:"freelancer_id" json:"freelancer_id"`
	Items         []InvoiceItem `bson:"items" json:"items"`
	Subtotal      float64       `bson:"subtotal" json:"subtotal"`
	TaxPercentage float64       `bson:"tax_percentage" json:"tax_percentage"`
	TaxAmount     float64       `bson:"tax_amount" json:"tax_amount"`
	TotalAmount   float64       `bson:"total_amount" json:"total_amount"`
	Status        InvoiceStatus `bson:"status" json:"status"`
	DueDate       time.Time     `bson:"due_date" json:"due_date"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
	PaymentMethod string        `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	PaidDate      *time.Time    `bson:"paid_date,omitempty" json:"paid_date,omitempty"`
	LogIDs        []utils.SixID `bson:"logs" json:"logs"` // Canonical lifecycle-coupled references
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updated_at"`
}

// IsParty reports whether the given user is the invoice's freelancer or client.
func (i *Invoice) IsParty(userID utils.SixID) bool {
	return i.FreelancerID == userID || i.ClientID == userID
}
