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

// ITaskService defines the interface for task operations.
type ITaskService interface {
	CreateTask(ctx context.Context, projectID, callerID utils.SixID, title, description string, dueDate *time.Time) (*models.Task, error)
	FindTaskByID(ctx context.Context, taskID utils.SixID) (*models.Task, error)
	FindTasksByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, callerID utils.SixID, status models.TaskStatus) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID, callerID utils.SixID) error
}

const tasksCollection = "tasks"

// taskService implements ITaskService.
type taskService struct {
	db             *mongo.Database
	projectService IProjectService
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *mongo.Database, projectService IProjectService) ITaskService {
	return &taskService{db: db, projectService: projectService}
}

// CreateTask creates a task in a project the caller belongs to.
func (s *taskService) CreateTask(ctx context.Context, projectID, callerID utils.SixID, title, description string, dueDate *time.Time) (*models.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	if err := s.authorizeProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc, err := db.InsertOne(ctx, s.db.Collection(tasksCollection), &models.Task{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		Status:      models.TaskStatusTodo,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	return doc.(*models.Task), nil
}

// FindTaskByID finds a task by its ID. It does NOT check project membership.
func (s *taskService) FindTaskByID(ctx context.Context, taskID utils.SixID) (*models.Task, error) {
	var task models.Task
	err := s.db.Collection(tasksCollection).FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID.String())
		}
		return nil, fmt.Errorf("error finding task %s: %w", taskID.String(), err)
	}
	return &task, nil
}

// FindTasksByProject lists a project's tasks, oldest first.
func (s *taskService) FindTasksByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.Task, error) {
	if err := s.authorizeProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(tasksCollection).Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus moves a task to a new status.
func (s *taskService) UpdateTaskStatus(ctx context.Context, taskID, callerID utils.SixID, status models.TaskStatus) (*models.Task, error) {
	switch status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
	default:
		return nil, fmt.Errorf("invalid task status %q", status)
	}

	task, err := s.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeProject(ctx, task.ProjectID, callerID); err != nil {
		return nil, err
	}

	var updated models.Task
	res := s.db.Collection(tasksCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": taskID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&updated); err != nil {
		return nil, fmt.Errorf("error updating task %s: %w", taskID.String(), err)
	}
	return &updated, nil
}

// DeleteTask removes a task from a project the caller belongs to.
func (s *taskService) DeleteTask(ctx context.Context, taskID, callerID utils.SixID) error {
	task, err := s.FindTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.authorizeProject(ctx, task.ProjectID, callerID); err != nil {
		return err
	}

	_, err = s.db.Collection(tasksCollection).DeleteOne(ctx, bson.M{"_id": taskID})
	if err != nil {
		return fmt.Errorf("error deleting task %s: %w", taskID.String(), err)
	}
	return nil
}

func (s *taskService) authorizeProject(ctx context.Context, projectID, callerID utils.SixID) error {
	project, err := s.projectService.FindProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.IsParty(callerID) {
		return ErrNotAuthorized
	}
	return nil
}
