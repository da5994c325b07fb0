package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"freelanceflow/internal/config"
	"freelanceflow/internal/db"
	"freelanceflow/internal/models"
	"freelanceflow/internal/utils"
)

// CreateInvoiceInput carries the freelancer's selection for a new invoice.
type CreateInvoiceInput struct {
	ProjectID     utils.SixID
	TimeLogIDs    []utils.SixID
	HourlyRate    float64
	TaxPercentage float64
	DueDate       time.Time
	Notes         string
	Status        models.InvoiceStatus // Optional initial status; defaults to draft
}

// IInvoiceService is the billing reconciler: every mutation of
// TimeLog.billed/status/invoice_id goes through the three operations here,
// keeping log state consistent with the owning invoice's lifecycle.
type IInvoiceService interface {
	CreateInvoice(ctx context.Context, freelancerID utils.SixID, input CreateInvoiceInput) (*models.Invoice, error)
	TransitionStatus(ctx context.Context, invoiceID, callerID utils.SixID, newStatus models.InvoiceStatus, paymentMethod string, paidDate *time.Time) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, invoiceID, callerID utils.SixID) error
	FindInvoiceByID(ctx context.Context, invoiceID, callerID utils.SixID) (*models.Invoice, error)
	FindInvoicesForUser(ctx context.Context, userID utils.SixID) ([]models.Invoice, error)
	MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error)
}

const invoicesCollection = "invoices"

// legalTransitions is the invoice status transition table. Draft is an
// initial state only; any pair not listed here is rejected.
var legalTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid},
}

// invoiceService implements IInvoiceService.
type invoiceService struct {
	db              *mongo.Database
	cfg             *config.Config
	projectService  IProjectService
	sequenceService ISequenceService
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(db *mongo.Database, cfg *config.Config, projectService IProjectService, sequenceService ISequenceService) IInvoiceService {
	return &invoiceService{
		db:              db,
		cfg:             cfg,
		projectService:  projectService,
		sequenceService: sequenceService,
	}
}

// CreateInvoice builds an invoice from a selection of the project's unbilled
// time logs and marks those logs billed.
//
// Logs are claimed with a conditional update (billed=false filter). A short
// claim means another writer billed some of the selection concurrently; the
// operation then reverts its own claims, deletes the inserted invoice and
// reports ErrInvalidSelection, so a log can never end up on two invoices.
func (s *invoiceService) CreateInvoice(ctx context.Context, freelancerID utils.SixID, input CreateInvoiceInput) (*models.Invoice, error) {
	project, err := s.projectService.FindProjectByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.FreelancerID != freelancerID {
		return nil, ErrNotAuthorized
	}

	status := input.Status
	if status == "" {
		status = models.InvoiceStatusDraft
	}
	switch status {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid:
	default:
		return nil, fmt.Errorf("invalid initial invoice status %q", status)
	}

	logIDs := dedupeIDs(input.TimeLogIDs)
	if len(logIDs) == 0 {
		return nil, fmt.Errorf("%w: no time logs selected", ErrInvalidSelection)
	}

	logs, err := s.fetchLogs(ctx, logIDs)
	if err != nil {
		return nil, err
	}
	if len(logs) != len(logIDs) {
		return nil, fmt.Errorf("%w: %d of %d selected logs not found", ErrInvalidSelection, len(logIDs)-len(logs), len(logIDs))
	}
	for i := range logs {
		if logs[i].ProjectID != project.ID {
			return nil, fmt.Errorf("%w: log %s belongs to another project", ErrInvalidSelection, logs[i].ID.String())
		}
		if logs[i].Billed {
			return nil, fmt.Errorf("%w: log %s is already billed", ErrInvalidSelection, logs[i].ID.String())
		}
	}

	rate := input.HourlyRate
	if rate <= 0 {
		rate = project.HourlyRate
	}
	taxPct := input.TaxPercentage
	if taxPct < 0 {
		taxPct = s.cfg.DefaultTaxPercentage
	}
	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = time.Now().UTC().AddDate(0, 0, s.cfg.InvoiceDueDays)
	}

	items := make([]models.InvoiceItem, 0, len(logs))
	subtotal := 0.0
	for i := range logs {
		logID := logs[i].ID
		amount := round2(logs[i].DurationHours * rate)
		items = append(items, models.InvoiceItem{
			Description: logs[i].Description,
			Hours:       logs[i].DurationHours,
			HourlyRate:  rate,
			Amount:      amount,
			TimeLogID:   &logID,
		})
		subtotal += amount
	}
	subtotal = round2(subtotal)
	taxAmount := round2(subtotal * taxPct / 100)
	totalAmount := round2(subtotal + taxAmount)

	now := time.Now().UTC()
	invoice := &models.Invoice{
		ProjectID:     project.ID,
		ClientID:      project.ClientID,
		FreelancerID:  project.FreelancerID,
		Items:         items,
		Subtotal:      subtotal,
		TaxPercentage: taxPct,
		TaxAmount:     taxAmount,
		TotalAmount:   totalAmount,
		Status:        status,
		DueDate:       dueDate.UTC(),
		Notes:         input.Notes,
		LogIDs:        logIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == models.InvoiceStatusPaid {
		paid := now
		invoice.PaidDate = &paid
	}

	// The invoice number comes from an atomic counter; a unique-index
	// conflict can still happen against legacy data, so allocation and
	// insert retry together.
	collection := s.db.Collection(invoicesCollection)
	err = db.Try(func() error {
		number, numErr := s.sequenceService.NextInvoiceNumber(ctx)
		if numErr != nil {
			return numErr
		}
		invoice.InvoiceNumber = number
		invoice.GenIDIfEmpty()
		_, insErr := collection.InsertOne(ctx, invoice)
		return insErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	logStatus := models.TimeLogStatusBilled
	if status == models.InvoiceStatusPaid {
		logStatus = models.TimeLogStatusPaid
	}
	res, err := s.db.Collection(timeLogsCollection).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": logIDs}, "billed": false},
		bson.M{"$set": bson.M{
			"billed":     true,
			"status":     logStatus,
			"invoice_id": invoice.ID,
			"updated_at": now,
		}},
	)
	if err != nil || res.ModifiedCount != int64(len(logIDs)) {
		s.compensateCreate(ctx, invoice.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to mark logs billed for invoice %s: %w", invoice.InvoiceNumber, err)
		}
		return nil, fmt.Errorf("%w: %d of %d logs were billed concurrently", ErrInvalidSelection, int64(len(logIDs))-res.ModifiedCount, len(logIDs))
	}

	return invoice, nil
}

// compensateCreate rolls back a partially applied CreateInvoice: it releases
// only the logs this invoice managed to claim, then removes the invoice.
func (s *invoiceService) compensateCreate(ctx context.Context, invoiceID utils.SixID) {
	_, err := s.db.Collection(timeLogsCollection).UpdateMany(ctx,
		bson.M{"invoice_id": invoiceID},
		revertLogsUpdate(time.Now().UTC()),
	)
	if err != nil {
		log.Printf("CRITICAL: failed to release logs while rolling back invoice %s: %v", invoiceID.String(), err)
	}
	if _, err := s.db.Collection(invoicesCollection).DeleteOne(ctx, bson.M{"_id": invoiceID}); err != nil {
		log.Printf("CRITICAL: failed to delete invoice %s during rollback: %v", invoiceID.String(), err)
	}
}

// TransitionStatus moves an invoice along the legal transition table. A
// transition to paid cascades to every log in the invoice's logs array and
// stamps the paid date.
func (s *invoiceService) TransitionStatus(ctx context.Context, invoiceID, callerID utils.SixID, newStatus models.InvoiceStatus, paymentMethod string, paidDate *time.Time) (*models.Invoice, error) {
	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsParty(callerID) {
		return nil, ErrNotAuthorized
	}

	if !transitionAllowed(invoice.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, invoice.Status, newStatus)
	}

	now := time.Now().UTC()
	set := bson.M{"status": newStatus, "updated_at": now}
	if newStatus == models.InvoiceStatusPaid {
		if paymentMethod != "" {
			set["payment_method"] = paymentMethod
		}
		if invoice.PaidDate == nil {
			when := now
			if paidDate != nil {
				when = paidDate.UTC()
			}
			set["paid_date"] = when
		}
	}

	var updated models.Invoice
	res := s.db.Collection(invoicesCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": invoiceID, "status": invoice.Status},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Status moved underneath us; report it as an illegal transition.
			return nil, fmt.Errorf("%w: invoice %s changed concurrently", ErrInvalidTransition, invoiceID.String())
		}
		return nil, fmt.Errorf("error updating invoice %s: %w", invoiceID.String(), err)
	}

	if newStatus == models.InvoiceStatusPaid && len(updated.LogIDs) > 0 {
		_, err = s.db.Collection(timeLogsCollection).UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": updated.LogIDs}},
			bson.M{"$set": bson.M{"status": models.TimeLogStatusPaid, "updated_at": now}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to cascade paid status to logs of invoice %s: %w", updated.InvoiceNumber, err)
		}
	}

	return &updated, nil
}

// DeleteInvoice removes an invoice and reverts every affected log to
// unbilled. Affected logs are the union of the logs array and any
// item.time_log_id, covering documents written before the logs array existed.
//
// Paid invoices are rejected unless the AllowPaidInvoiceDelete policy is set.
func (s *invoiceService) DeleteInvoice(ctx context.Context, invoiceID, callerID utils.SixID) error {
	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if !invoice.IsParty(callerID) {
		return ErrNotAuthorized
	}
	if invoice.Status == models.InvoiceStatusPaid && !s.cfg.AllowPaidInvoiceDelete {
		return ErrPaidInvoiceDelete
	}

	affected := invoice.LogIDs
	for i := range invoice.Items {
		if invoice.Items[i].TimeLogID != nil {
			affected = append(affected, *invoice.Items[i].TimeLogID)
		}
	}
	affected = dedupeIDs(affected)

	// Delete the invoice first: reverting first would open a window where
	// still-referenced logs are selectable by a concurrent CreateInvoice.
	if _, err := s.db.Collection(invoicesCollection).DeleteOne(ctx, bson.M{"_id": invoiceID}); err != nil {
		return fmt.Errorf("error deleting invoice %s: %w", invoiceID.String(), err)
	}

	if len(affected) > 0 {
		now := time.Now().UTC()
		err = db.Try(func() error {
			_, revertErr := s.db.Collection(timeLogsCollection).UpdateMany(ctx,
				bson.M{"_id": bson.M{"$in": affected}},
				revertLogsUpdate(now),
			)
			return revertErr
		})
		if err != nil {
			return fmt.Errorf("invoice %s deleted but reverting its logs failed: %w", invoice.InvoiceNumber, err)
		}
	}

	return nil
}

// FindInvoiceByID fetches one invoice for an authorized party.
func (s *invoiceService) FindInvoiceByID(ctx context.Context, invoiceID, callerID utils.SixID) (*models.Invoice, error) {
	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsParty(callerID) {
		return nil, ErrNotAuthorized
	}
	return invoice, nil
}

// FindInvoicesForUser lists invoices where the user is client or freelancer,
// newest first.
func (s *invoiceService) FindInvoicesForUser(ctx context.Context, userID utils.SixID) ([]models.Invoice, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"freelancer_id": userID},
		bson.M{"client_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.db.Collection(invoicesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []models.Invoice
	if err = cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}
	return invoices, nil
}

// MarkOverdueInvoices flips sent invoices past their due date to overdue and
// returns how many were updated. Called from the background task.
func (s *invoiceService) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.Collection(invoicesCollection).UpdateMany(ctx,
		bson.M{"status": models.InvoiceStatusSent, "due_date": bson.M{"$lt": now.UTC()}},
		bson.M{"$set": bson.M{"status": models.InvoiceStatusOverdue, "updated_at": now.UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *invoiceService) findInvoice(ctx context.Context, invoiceID utils.SixID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Collection(invoicesCollection).FindOne(ctx, bson.M{"_id": invoiceID}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID.String())
		}
		return nil, fmt.Errorf("error finding invoice %s: %w", invoiceID.String(), err)
	}
	return &invoice, nil
}

func (s *invoiceService) fetchLogs(ctx context.Context, logIDs []utils.SixID) ([]models.TimeLog, error) {
	cursor, err := s.db.Collection(timeLogsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": logIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query selected time logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []models.TimeLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode selected time logs: %w", err)
	}
	return logs, nil
}

// revertLogsUpdate is the update document that returns logs to the unbilled state.
func revertLogsUpdate(now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"billed":     false,
			"status":     models.TimeLogStatusUnbilled,
			"updated_at": now,
		},
		"$unset": bson.M{"invoice_id": ""},
	}
}

func transitionAllowed(from, to models.InvoiceStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func dedupeIDs(ids []utils.SixID) []utils.SixID {
	seen := make(map[utils.SixID]bool, len(ids))
	out := make([]utils.SixID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
