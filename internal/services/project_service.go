package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"freelanceflow/internal/db"
	"freelanceflow/internal/models"
	"freelanceflow/internal/utils"
)

// IProjectService defines the interface for project operations.
type IProjectService interface {
	CreateProject(ctx context.Context, freelancerID, clientID utils.SixID, name, description string, hourlyRate float64) (*models.Project, error)
	FindProjectByID(ctx context.Context, projectID utils.SixID) (*models.Project, error)
	FindProjectsForUser(ctx context.Context, userID utils.SixID) ([]models.Project, error)
	UpdateProject(ctx context.Context, projectID, callerID utils.SixID, updates map[string]interface{}) (*models.Project, error)
	DeleteProject(ctx context.Context, projectID, callerID utils.SixID) error
}

const projectsCollection = "projects"

// projectService implements IProjectService.
type projectService struct {
	db *mongo.Database
}

// NewProjectService creates a new ProjectService.
func NewProjectService(db *mongo.Database) IProjectService {
	return &projectService{db: db}
}

// CreateProject creates a project owned by the freelancer.
func (s *projectService) CreateProject(ctx context.Context, freelancerID, clientID utils.SixID, name, description string, hourlyRate float64) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if hourlyRate < 0 {
		return nil, fmt.Errorf("hourly rate must not be negative")
	}

	now := time.Now().UTC()
	doc, err := db.InsertOne(ctx, s.db.Collection(projectsCollection), &models.Project{
		FreelancerID: freelancerID,
		ClientID:     clientID,
		Name:         name,
		Description:  description,
		HourlyRate:   hourlyRate,
		Status:       models.ProjectStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	return doc.(*models.Project), nil
}

// FindProjectByID finds a project by its ID. It does NOT check ownership.
func (s *projectService) FindProjectByID(ctx context.Context, projectID utils.SixID) (*models.Project, error) {
	var project models.Project
	err := s.db.Collection(projectsCollection).FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID.String())
		}
		return nil, fmt.Errorf("error finding project %s: %w", projectID.String(), err)
	}
	return &project, nil
}

// FindProjectsForUser lists projects where the user is freelancer or client,
// newest first.
func (s *projectService) FindProjectsForUser(ctx context.Context, userID utils.SixID) ([]models.Project, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"freelancer_id": userID},
		bson.M{"client_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.db.Collection(projectsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err = cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// UpdateProject updates mutable fields of a project owned by the caller.
// The updates map holds BSON field names and new values; only a whitelisted
// set of fields is accepted.
func (s *projectService) UpdateProject(ctx context.Context, projectID, callerID utils.SixID, updates map[string]interface{}) (*models.Project, error) {
	allowed := map[string]bool{"name": true, "description": true, "hourly_rate": true, "status": true}
	set := bson.M{}
	for field, value := range updates {
		if !allowed[field] {
			return nil, fmt.Errorf("field %q is not updatable", field)
		}
		set[field] = value
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no updatable fields provided")
	}
	set["updated_at"] = time.Now().UTC()

	var project models.Project
	res := s.db.Collection(projectsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": projectID, "freelancer_id": callerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.notFoundOrForbidden(ctx, projectID)
		}
		return nil, fmt.Errorf("error updating project %s: %w", projectID.String(), err)
	}
	return &project, nil
}

// DeleteProject removes a project owned by the caller. Projects with any
// time logs attached cannot be deleted.
func (s *projectService) DeleteProject(ctx context.Context, projectID, callerID utils.SixID) error {
	project, err := s.FindProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.FreelancerID != callerID {
		return ErrNotAuthorized
	}

	logCount, err := s.db.Collection(timeLogsCollection).CountDocuments(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return fmt.Errorf("failed to count project time logs: %w", err)
	}
	if logCount > 0 {
		return fmt.Errorf("project %s has %d time logs and cannot be deleted", projectID.String(), logCount)
	}

	_, err = s.db.Collection(projectsCollection).DeleteOne(ctx, bson.M{"_id": projectID})
	if err != nil {
		return fmt.Errorf("error deleting project %s: %w", projectID.String(), err)
	}
	return nil
}

// notFoundOrForbidden distinguishes a missing project from one owned by
// someone else, so handlers can return 404 vs 403.
func (s *projectService) notFoundOrForbidden(ctx context.Context, projectID utils.SixID) error {
	if _, err := s.FindProjectByID(ctx, projectID); err != nil {
		return err
	}
	return ErrNotAuthorized
}
