package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"freelanceflow/internal/db"
	"freelanceflow/internal/models"
)

// ISequenceService allocates human-readable invoice numbers.
type ISequenceService interface {
	NextInvoiceNumber(ctx context.Context) (string, error)
}

const (
	countersCollection = "counters"
	invoiceNumberSeq   = "invoice_number"
	invoiceNumberFmt   = "INV-%05d"
)

// invoiceNumberPattern matches the numeric suffix after the last dash.
var invoiceNumberPattern = regexp.MustCompile(`-(\d+)$`)

// sequenceService implements ISequenceService on top of an atomically
// incremented counter document. The read-max-then-add-one approach is racy
// under concurrent writers; $inc on a single document is not.
type sequenceService struct {
	db *mongo.Database
}

// NewSequenceService creates a new SequenceService.
func NewSequenceService(db *mongo.Database) ISequenceService {
	return &sequenceService{db: db}
}

// NextInvoiceNumber returns the next number in the INV-NNNNN sequence.
// On first use the counter is seeded from the most recently created invoice,
// so pre-existing data continues the sequence instead of restarting it.
func (s *sequenceService) NextInvoiceNumber(ctx context.Context) (string, error) {
	counters := s.db.Collection(countersCollection)

	err := counters.FindOne(ctx, bson.M{"_id": invoiceNumberSeq}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		if seedErr := s.seedCounter(ctx); seedErr != nil {
			return "", seedErr
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to read invoice number counter: %w", err)
	}

	var counter models.Counter
	res := counters.FindOneAndUpdate(ctx,
		bson.M{"_id": invoiceNumberSeq},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(&counter); err != nil {
		return "", fmt.Errorf("failed to increment invoice number counter: %w", err)
	}

	return fmt.Sprintf(invoiceNumberFmt, counter.Seq), nil
}

// seedCounter initializes the counter document from the latest existing
// invoice. A concurrent seeder losing the insert race is fine: the duplicate
// key error is swallowed and the surviving document is used.
func (s *sequenceService) seedCounter(ctx context.Context) error {
	var latest models.Invoice
	seq := int64(0)

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := s.db.Collection(invoicesCollection).FindOne(ctx, bson.M{}, opts).Decode(&latest)
	if err == nil {
		seq = parseInvoiceNumber(latest.InvoiceNumber)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to read latest invoice for counter seed: %w", err)
	}

	_, err = s.db.Collection(countersCollection).InsertOne(ctx, models.Counter{
		Name: invoiceNumberSeq,
		Seq:  seq,
	})
	if err != nil && !db.IsMongoDuplicateKeyError(err) {
		return fmt.Errorf("failed to seed invoice number counter: %w", err)
	}
	return nil
}

// parseInvoiceNumber extracts the numeric suffix of an invoice number.
// Malformed numbers are treated as 0 rather than failing allocation.
func parseInvoiceNumber(number string) int64 {
	m := invoiceNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
