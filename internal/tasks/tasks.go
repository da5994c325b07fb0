package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"freelanceflow/internal/config"
	"freelanceflow/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeInvoiceCheckOverdue = "billing:invoice:check_overdue"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	invoiceService services.IInvoiceService
	taskClient     *asynq.Client
}

func NewTaskProcessor(cfg *config.Config, invoiceService services.IInvoiceService, taskClient *asynq.Client) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		invoiceService: invoiceService,
		taskClient:     taskClient,
	}
}

// SetupServer configures an Asynq server instance and its handler mux.
// The caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInvoiceCheckOverdue, processor.HandleInvoiceCheckOverdueTask)
	fmt.Println("Registered background task handlers.")

	return srv, mux
}

// SeedOverdueCheck enqueues the first overdue check so the periodic loop
// starts after boot. Duplicate enqueues are harmless since the check is
// idempotent.
func SeedOverdueCheck(ctx context.Context, client *asynq.Client) error {
	t := asynq.NewTask(TypeInvoiceCheckOverdue, nil)
	info, err := client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to enqueue initial overdue check: %w", err)
	}
	log.Printf("Enqueued initial overdue check task %s", info.ID)
	return nil
}

// --- Task Handlers ---

// HandleInvoiceCheckOverdueTask flips sent invoices past their due date to
// overdue, then re-enqueues itself to run after the configured interval.
func (p *TaskProcessor) HandleInvoiceCheckOverdueTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting overdue invoice check...")

	marked, err := p.invoiceService.MarkOverdueInvoices(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Error marking overdue invoices: %v", err)
		return err // Retry DB error
	}
	if marked > 0 {
		log.Printf("Marked %d invoices as overdue.", marked)
	}

	nextCheckDelay := p.cfg.OverdueCheckInterval
	taskInfo, err := p.taskClient.EnqueueContext(ctx, t, asynq.ProcessIn(nextCheckDelay))
	if err != nil {
		log.Printf("ERROR failed to re-enqueue overdue check task: %v", err)
		return err
	}
	log.Printf("Overdue check finished. Re-enqueued task %s to run in %v.", taskInfo.ID, nextCheckDelay)
	return nil
}
