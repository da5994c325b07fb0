package models

import (
	"time"

	"freelanceflow/internal/utils"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project ties a freelancer to a client. Time logs and invoices reference it.
type Project struct {
	Base         `bson:",inline"`
	FreelancerID utils.SixID   `bson:"freelancer_id" json:"freelancer_id"`
	ClientID     utils.SixID   `bson:"client_id" json:"client_id"`
	Name         string        `bson:"name" json:"name"`
	Description  string        `bson:"description,omitempty" json:"description,omitempty"`
	HourlyRate   float64       `bson:"hourly_rate" json:"hourly_rate"`
	Status       ProjectStatus `bson:"status" json:"status"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// IsParty reports whether the given user is the project's freelancer or client.
func (p *Project) IsParty(userID utils.SixID) bool {
	return p.FreelancerID == userID || p.ClientID == userID
}
