package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"freelanceflow/internal/config"
	"freelanceflow/internal/models"
	"freelanceflow/internal/utils"
)

type invoiceFixture struct {
	db         *mongo.Database
	cfg        *config.Config
	projectSvc IProjectService
	timeLogSvc ITimeLogService
	invoiceSvc IInvoiceService
	project    *models.Project
	logs       []*models.TimeLog
}

// setupInvoiceFixture builds a project with two unbilled logs of 2.0h and
// 1.5h, the worked example used throughout these tests.
func setupInvoiceFixture(t *testing.T, dbName string) *invoiceFixture {
	db := utils.SetupTestDB(t, dbName, projectsCollection, timeLogsCollection, invoicesCollection, countersCollection)
	cfg := &config.Config{InvoiceDueDays: 14}

	projectSvc := NewProjectService(db)
	timeLogSvc := NewTimeLogService(db, projectSvc)
	invoiceSvc := NewInvoiceService(db, cfg, projectSvc, NewSequenceService(db))

	ctx := context.Background()
	project, err := projectSvc.CreateProject(ctx, utils.NewSixID(), utils.NewSixID(), "Webshop", "", 500)
	require.NoError(t, err)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first, err := timeLogSvc.CreateTimeLog(ctx, project.FreelancerID, project.ID, "Checkout flow", start, start.Add(2*time.Hour))
	require.NoError(t, err)
	second, err := timeLogSvc.CreateTimeLog(ctx, project.FreelancerID, project.ID, "Bug fixes", start.Add(3*time.Hour), start.Add(270*time.Minute))
	require.NoError(t, err)

	return &invoiceFixture{
		db:         db,
		cfg:        cfg,
		projectSvc: projectSvc,
		timeLogSvc: timeLogSvc,
		invoiceSvc: invoiceSvc,
		project:    project,
		logs:       []*models.TimeLog{first, second},
	}
}

func (f *invoiceFixture) logIDs() []utils.SixID {
	ids := make([]utils.SixID, 0, len(f.logs))
	for _, l := range f.logs {
		ids = append(ids, l.ID)
	}
	return ids
}

func (f *invoiceFixture) reloadLog(t *testing.T, id utils.SixID) *models.TimeLog {
	var tlog models.TimeLog
	err := f.db.Collection(timeLogsCollection).FindOne(context.Background(), bson.M{"_id": id}).Decode(&tlog)
	require.NoError(t, err)
	return &tlog
}

func TestCreateInvoice_AmountsAndClaims(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_create")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:     f.project.ID,
		TimeLogIDs:    f.logIDs(),
		TaxPercentage: 10,
	})
	require.NoError(t, err)

	// 2.0h + 1.5h at the project rate of 500, plus 10% tax
	assert.Equal(t, "INV-00001", invoice.InvoiceNumber)
	assert.Equal(t, 1750.0, invoice.Subtotal)
	assert.Equal(t, 175.0, invoice.TaxAmount)
	assert.Equal(t, 1925.0, invoice.TotalAmount)
	assert.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, f.project.ClientID, invoice.ClientID)
	require.Len(t, invoice.Items, 2)
	assert.Equal(t, 1000.0, invoice.Items[0].Amount)
	assert.Equal(t, 750.0, invoice.Items[1].Amount)
	assert.ElementsMatch(t, f.logIDs(), invoice.LogIDs)

	// Due date defaults from config
	expectedDue := time.Now().UTC().AddDate(0, 0, f.cfg.InvoiceDueDays)
	assert.WithinDuration(t, expectedDue, invoice.DueDate, time.Minute)

	// Every selected log is now claimed by the invoice
	for _, id := range f.logIDs() {
		tlog := f.reloadLog(t, id)
		assert.True(t, tlog.Billed)
		assert.Equal(t, models.TimeLogStatusBilled, tlog.Status)
		require.NotNil(t, tlog.InvoiceID)
		assert.Equal(t, invoice.ID, *tlog.InvoiceID)
	}
}

func TestCreateInvoice_ExplicitRateOverridesProject(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_rate")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs()[:1],
		HourlyRate: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, 160.0, invoice.Subtotal)
	assert.Equal(t, 0.0, invoice.TaxAmount)
	assert.Equal(t, 160.0, invoice.TotalAmount)
}

func TestCreateInvoice_SequentialNumbers(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_numbers")
	ctx := context.Background()

	first, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs()[:1],
	})
	require.NoError(t, err)
	second, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs()[1:],
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-00001", first.InvoiceNumber)
	assert.Equal(t, "INV-00002", second.InvoiceNumber)
}

func TestCreateInvoice_InvalidSelections(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_selection")
	ctx := context.Background()

	// Empty selection
	_, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID: f.project.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	// Unknown log ID
	_, err = f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: []utils.SixID{utils.NewSixID()},
	})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	// Log from another project
	otherProject, err := f.projectSvc.CreateProject(ctx, f.project.FreelancerID, utils.NewSixID(), "Other", "", 100)
	require.NoError(t, err)
	start := time.Now().UTC()
	foreign, err := f.timeLogSvc.CreateTimeLog(ctx, f.project.FreelancerID, otherProject.ID, "foreign", start, start.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: []utils.SixID{f.logs[0].ID, foreign.ID},
	})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	// Already billed log
	_, err = f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs()[:1],
	})
	require.NoError(t, err)
	_, err = f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
	})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	// A failed creation must not leave partially claimed logs behind
	second := f.reloadLog(t, f.logs[1].ID)
	assert.False(t, second.Billed)
	assert.Nil(t, second.InvoiceID)
}

func TestCreateInvoice_OnlyProjectFreelancer(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_owner")
	ctx := context.Background()

	_, err := f.invoiceSvc.CreateInvoice(ctx, f.project.ClientID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCreateInvoice_PaidInitialStatus(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_paid_initial")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
		Status:     models.InvoiceStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	require.NotNil(t, invoice.PaidDate)

	for _, id := range f.logIDs() {
		assert.Equal(t, models.TimeLogStatusPaid, f.reloadLog(t, id).Status)
	}
}

func TestTransitionStatus_LifecyclePath(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_transition")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
	})
	require.NoError(t, err)

	// draft -> paid is not in the transition table
	_, err = f.invoiceSvc.TransitionStatus(ctx, invoice.ID, f.project.FreelancerID, models.InvoiceStatusPaid, "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	sent, err := f.invoiceSvc.TransitionStatus(ctx, invoice.ID, f.project.FreelancerID, models.InvoiceStatusSent, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusSent, sent.Status)

	// sent -> draft does not exist
	_, err = f.invoiceSvc.TransitionStatus(ctx, invoice.ID, f.project.FreelancerID, models.InvoiceStatusDraft, "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	paidDate := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	paid, err := f.invoiceSvc.TransitionStatus(ctx, invoice.ID, f.project.ClientID, models.InvoiceStatusPaid, "bank_transfer", &paidDate)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, "bank_transfer", paid.PaymentMethod)
	require.NotNil(t, paid.PaidDate)
	assert.WithinDuration(t, paidDate, *paid.PaidDate, time.Second)

	// Paid cascades to every log on the invoice
	for _, id := range f.logIDs() {
		tlog := f.reloadLog(t, id)
		assert.Equal(t, models.TimeLogStatusPaid, tlog.Status)
		assert.True(t, tlog.Billed)
	}

	// paid is terminal
	_, err = f.invoiceSvc.TransitionStatus(ctx, invoice.ID, f.project.FreelancerID, models.InvoiceStatusSent, "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionStatus_OverdueManualAndBack(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_overdue_manual")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
		Status:     models.InvoiceStatusSent,
	})
	require.NoError(t, err)

	overdue, err := f.invoiceSvc.TransitionStatus(ctx, invoice.ID, f.project.FreelancerID, models.InvoiceStatusOverdue, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, overdue.Status)

	paid, err := f.invoiceSvc.TransitionStatus(ctx, invoice.ID, f.project.ClientID, models.InvoiceStatusPaid, "paypal", nil)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
}

func TestTransitionStatus_StrangerRejected(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_transition_authz")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
	})
	require.NoError(t, err)

	_, err = f.invoiceSvc.TransitionStatus(ctx, invoice.ID, utils.NewSixID(), models.InvoiceStatusSent, "", nil)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDeleteInvoice_RevertsLogs(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_delete")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
	})
	require.NoError(t, err)

	err = f.invoiceSvc.DeleteInvoice(ctx, invoice.ID, f.project.FreelancerID)
	require.NoError(t, err)

	_, err = f.invoiceSvc.FindInvoiceByID(ctx, invoice.ID, f.project.FreelancerID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, id := range f.logIDs() {
		tlog := f.reloadLog(t, id)
		assert.False(t, tlog.Billed)
		assert.Equal(t, models.TimeLogStatusUnbilled, tlog.Status)
		assert.Nil(t, tlog.InvoiceID)
	}

	// Reverted logs are selectable for a fresh invoice
	again, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-00002", again.InvoiceNumber)
}

func TestDeleteInvoice_PaidPolicy(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_delete_paid")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
		Status:     models.InvoiceStatusPaid,
	})
	require.NoError(t, err)

	err = f.invoiceSvc.DeleteInvoice(ctx, invoice.ID, f.project.FreelancerID)
	assert.ErrorIs(t, err, ErrPaidInvoiceDelete)

	f.cfg.AllowPaidInvoiceDelete = true
	err = f.invoiceSvc.DeleteInvoice(ctx, invoice.ID, f.project.FreelancerID)
	require.NoError(t, err)

	for _, id := range f.logIDs() {
		assert.False(t, f.reloadLog(t, id).Billed)
	}
}

func TestDeleteInvoice_RevertsLogsReferencedOnlyByItems(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_delete_items")
	ctx := context.Background()

	// An older document whose logs array drifted: one log only appears on an
	// item's time_log_id.
	orphanID := f.logs[1].ID
	stale := &models.Invoice{
		InvoiceNumber: "INV-00099",
		ProjectID:     f.project.ID,
		ClientID:      f.project.ClientID,
		FreelancerID:  f.project.FreelancerID,
		Status:        models.InvoiceStatusSent,
		LogIDs:        []utils.SixID{f.logs[0].ID},
		Items: []models.InvoiceItem{
			{Description: "Checkout flow", Hours: 2, HourlyRate: 500, Amount: 1000, TimeLogID: &f.logs[0].ID},
			{Description: "Bug fixes", Hours: 1.5, HourlyRate: 500, Amount: 750, TimeLogID: &orphanID},
		},
		DueDate:   time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	stale.GenIDIfEmpty()
	_, err := f.db.Collection(invoicesCollection).InsertOne(ctx, stale)
	require.NoError(t, err)
	_, err = f.db.Collection(timeLogsCollection).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": f.logIDs()}},
		bson.M{"$set": bson.M{"billed": true, "status": models.TimeLogStatusBilled, "invoice_id": stale.ID}},
	)
	require.NoError(t, err)

	err = f.invoiceSvc.DeleteInvoice(ctx, stale.ID, f.project.FreelancerID)
	require.NoError(t, err)

	for _, id := range f.logIDs() {
		tlog := f.reloadLog(t, id)
		assert.False(t, tlog.Billed)
		assert.Nil(t, tlog.InvoiceID)
	}
}

func TestMarkOverdueInvoices(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_overdue")
	ctx := context.Background()

	sent, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs()[:1],
		Status:     models.InvoiceStatusSent,
		DueDate:    time.Now().UTC().Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	draft, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs()[1:],
		DueDate:    time.Now().UTC().Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	marked, err := f.invoiceSvc.MarkOverdueInvoices(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	got, err := f.invoiceSvc.FindInvoiceByID(ctx, sent.ID, f.project.FreelancerID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, got.Status)

	// Drafts never become overdue, past due date or not
	got, err = f.invoiceSvc.FindInvoiceByID(ctx, draft.ID, f.project.FreelancerID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusDraft, got.Status)

	// Idempotent on a second pass
	marked, err = f.invoiceSvc.MarkOverdueInvoices(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), marked)
}

func TestFindInvoicesForUser_PartiesOnly(t *testing.T) {
	f := setupInvoiceFixture(t, "testdb_invoice_list")
	ctx := context.Background()

	invoice, err := f.invoiceSvc.CreateInvoice(ctx, f.project.FreelancerID, CreateInvoiceInput{
		ProjectID:  f.project.ID,
		TimeLogIDs: f.logIDs(),
	})
	require.NoError(t, err)

	for _, party := range []utils.SixID{f.project.FreelancerID, f.project.ClientID} {
		invoices, err := f.invoiceSvc.FindInvoicesForUser(ctx, party)
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, invoice.ID, invoices[0].ID)
	}

	invoices, err := f.invoiceSvc.FindInvoicesForUser(ctx, utils.NewSixID())
	require.NoError(t, err)
	assert.Empty(t, invoices)

	_, err = f.invoiceSvc.FindInvoiceByID(ctx, invoice.ID, utils.NewSixID())
	assert.ErrorIs(t, err, ErrNotAuthorized)
}
