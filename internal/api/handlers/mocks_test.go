package handlers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"freelanceflow/internal/api/middleware"
	"freelanceflow/internal/models"
	"freelanceflow/internal/services"
	"freelanceflow/internal/utils"
)

// authAs returns a middleware that injects the caller identity the way the
// JWT middleware does, so handlers can be tested without tokens.
func authAs(userID utils.SixID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID.String())
		c.Next()
	}
}

// MockUserService implements services.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string, role models.UserRole, hourlyRate float64) (*models.User, error) {
	args := m.Called(ctx, name, email, password, role, hourlyRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockProjectService implements services.IProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) CreateProject(ctx context.Context, freelancerID, clientID utils.SixID, name, description string, hourlyRate float64) (*models.Project, error) {
	args := m.Called(ctx, freelancerID, clientID, name, description, hourlyRate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) FindProjectByID(ctx context.Context, projectID utils.SixID) (*models.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) FindProjectsForUser(ctx context.Context, userID utils.SixID) ([]models.Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) UpdateProject(ctx context.Context, projectID, callerID utils.SixID, updates map[string]interface{}) (*models.Project, error) {
	args := m.Called(ctx, projectID, callerID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) DeleteProject(ctx context.Context, projectID, callerID utils.SixID) error {
	args := m.Called(ctx, projectID, callerID)
	return args.Error(0)
}

// MockTimeLogService implements services.ITimeLogService
type MockTimeLogService struct {
	mock.Mock
}

func (m *MockTimeLogService) CreateTimeLog(ctx context.Context, userID, projectID utils.SixID, description string, startTime, endTime time.Time) (*models.TimeLog, error) {
	args := m.Called(ctx, userID, projectID, description, startTime, endTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) FindTimeLogByID(ctx context.Context, logID utils.SixID) (*models.TimeLog, error) {
	args := m.Called(ctx, logID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) FindTimeLogsByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.TimeLog, error) {
	args := m.Called(ctx, projectID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) FindUnbilledByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.TimeLog, error) {
	args := m.Called(ctx, projectID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) FindUnbilledByUser(ctx context.Context, userID utils.SixID) ([]models.TimeLog, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) UpdateTimeLog(ctx context.Context, logID, callerID utils.SixID, description string, startTime, endTime time.Time) (*models.TimeLog, error) {
	args := m.Called(ctx, logID, callerID, description, startTime, endTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) DeleteTimeLog(ctx context.Context, logID, callerID utils.SixID) error {
	args := m.Called(ctx, logID, callerID)
	return args.Error(0)
}

// MockTaskService implements services.ITaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, projectID, callerID utils.SixID, title, description string, dueDate *time.Time) (*models.Task, error) {
	args := m.Called(ctx, projectID, callerID, title, description, dueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) FindTaskByID(ctx context.Context, taskID utils.SixID) (*models.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) FindTasksByProject(ctx context.Context, projectID, callerID utils.SixID) ([]models.Task, error) {
	args := m.Called(ctx, projectID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTaskStatus(ctx context.Context, taskID, callerID utils.SixID, status models.TaskStatus) (*models.Task, error) {
	args := m.Called(ctx, taskID, callerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, taskID, callerID utils.SixID) error {
	args := m.Called(ctx, taskID, callerID)
	return args.Error(0)
}

// MockInvoiceService implements services.IInvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, freelancerID utils.SixID, input services.CreateInvoiceInput) (*models.Invoice, error) {
	args := m.Called(ctx, freelancerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) TransitionStatus(ctx context.Context, invoiceID, callerID utils.SixID, newStatus models.InvoiceStatus, paymentMethod string, paidDate *time.Time) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID, callerID, newStatus, paymentMethod, paidDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) DeleteInvoice(ctx context.Context, invoiceID, callerID utils.SixID) error {
	args := m.Called(ctx, invoiceID, callerID)
	return args.Error(0)
}

func (m *MockInvoiceService) FindInvoiceByID(ctx context.Context, invoiceID, callerID utils.SixID) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) FindInvoicesForUser(ctx context.Context, userID utils.SixID) ([]models.Invoice, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
