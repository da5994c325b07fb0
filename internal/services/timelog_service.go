package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"freelanceflow/internal/db"
	"freelanceflow/internal/models"
	"freelanceflow/internal/utils"
)

// ITimeLogService defines the interface for time log operations.
//
// Billing state (billed/status/invoice_id) is never mutated here; only the
// invoice service flips those fields, so the TimeLog invariant has a single
// writer.
type ITimeLogService interface {
	CreateTimeLog(ctx context.Context, userID, projectID utils.SixID, description string, startTime, endTime time.Time) (*models.TimeLog, error)
	FindTimeLogByID(ctx context.Context, logID utils.SixID) (*models.TimeLog, error)
	FindTimeLogsByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.TimeLog, error)
	FindUnbilledByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.TimeLog, error)
	FindUnbilledByUser(ctx context.Context, userID utils.SixID) ([]models.TimeLog, error)
	UpdateTimeLog(ctx context.Context, logID, callerID utils.SixID, description string, startTime, endTime time.Time) (*models.TimeLog, error)
	DeleteTimeLog(ctx context.Context, logID, callerID utils.SixID) error
}

const timeLogsCollection = "timelogs"

// timeLogService implements ITimeLogService.
type timeLogService struct {
	db             *mongo.Database
	projectService IProjectService
}

// NewTimeLogService creates a new TimeLogService.
func NewTimeLogService(db *mongo.Database, projectService IProjectService) ITimeLogService {
	return &timeLogService{db: db, projectService: projectService}
}

// DurationHours computes the worked hours between start and end, rounded to
// 2 decimals.
func DurationHours(startTime, endTime time.Time) float64 {
	return round2(endTime.Sub(startTime).Hours())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateTimeLog records a worked interval against a project. New logs always
// start unbilled.
func (s *timeLogService) CreateTimeLog(ctx context.Context, userID, projectID utils.SixID, description string, startTime, endTime time.Time) (*models.TimeLog, error) {
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("end time must be after start time")
	}

	project, err := s.projectService.FindProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsParty(userID) {
		return nil, ErrNotAuthorized
	}

	now := time.Now().UTC()
	doc, err := db.InsertOne(ctx, s.db.Collection(timeLogsCollection), &models.TimeLog{
		ProjectID:     projectID,
		UserID:        userID,
		Description:   description,
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		DurationHours: DurationHours(startTime, endTime),
		Billed:        false,
		Status:        models.TimeLogStatusUnbilled,
		InvoiceID:     nil,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}
	return doc.(*models.TimeLog), nil
}

// FindTimeLogByID finds a time log by its ID. It does NOT check ownership.
func (s *timeLogService) FindTimeLogByID(ctx context.Context, logID utils.SixID) (*models.TimeLog, error) {
	var tlog models.TimeLog
	err := s.db.Collection(timeLogsCollection).FindOne(ctx, bson.M{"_id": logID}).Decode(&tlog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: time log %s", ErrNotFound, logID.String())
		}
		return nil, fmt.Errorf("error finding time log %s: %w", logID.String(), err)
	}
	return &tlog, nil
}

// FindTimeLogsByProject lists all logs for a project the caller belongs to.
func (s *timeLogService) FindTimeLogsByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.TimeLog, error) {
	if err := s.authorizeProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}
	return s.findLogs(ctx, bson.M{"project_id": projectID})
}

// FindUnbilledByProject lists a project's logs not yet attached to any invoice.
func (s *timeLogService) FindUnbilledByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.TimeLog, error) {
	if err := s.authorizeProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}
	return s.findLogs(ctx, bson.M{"project_id": projectID, "billed": false})
}

// FindUnbilledByUser lists the caller's unbilled logs across all projects.
func (s *timeLogService) FindUnbilledByUser(ctx context.Context, userID utils.SixID) ([]models.TimeLog, error) {
	return s.findLogs(ctx, bson.M{"user_id": userID, "billed": false})
}

// UpdateTimeLog edits a log's description and interval. Only the owner may
// edit, and only while the log is unbilled.
func (s *timeLogService) UpdateTimeLog(ctx context.Context, logID, callerID utils.SixID, description string, startTime, endTime time.Time) (*models.TimeLog, error) {
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("end time must be after start time")
	}

	tlog, err := s.FindTimeLogByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if tlog.UserID != callerID {
		return nil, ErrNotAuthorized
	}

	// Conditional on billed=false so a concurrent invoice creation cannot
	// edit a log out from under its invoice.
	var updated models.TimeLog
	res := s.db.Collection(timeLogsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": logID, "billed": false},
		bson.M{"$set": bson.M{
			"description":    description,
			"start_time":     startTime.UTC(),
			"end_time":       endTime.UTC(),
			"duration_hours": DurationHours(startTime, endTime),
			"updated_at":     time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLogBilled
		}
		return nil, fmt.Errorf("error updating time log %s: %w", logID.String(), err)
	}
	return &updated, nil
}

// DeleteTimeLog removes a log. Only the owner may delete, and only while the
// log is unbilled.
func (s *timeLogService) DeleteTimeLog(ctx context.Context, logID, callerID utils.SixID) error {
	tlog, err := s.FindTimeLogByID(ctx, logID)
	if err != nil {
		return err
	}
	if tlog.UserID != callerID {
		return ErrNotAuthorized
	}

	res, err := s.db.Collection(timeLogsCollection).DeleteOne(ctx, bson.M{"_id": logID, "billed": false})
	if err != nil {
		return fmt.Errorf("error deleting time log %s: %w", logID.String(), err)
	}
	if res.DeletedCount == 0 {
		return ErrLogBilled
	}
	return nil
}

func (s *timeLogService) findLogs(ctx context.Context, filter bson.M) ([]models.TimeLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := s.db.Collection(timeLogsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query time logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []models.TimeLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode time logs: %w", err)
	}
	return logs, nil
}

func (s *timeLogService) authorizeProject(ctx context.Context, projectID, callerID utils.SixID) error {
	project, err := s.projectService.FindProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.IsParty(callerID) {
		return ErrNotAuthorized
	}
	return nil
}
