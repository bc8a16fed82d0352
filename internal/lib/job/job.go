// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - You enqueue tasks (producer) using asynq.Client.
//   - A server runs workers that process those tasks (consumer) using asynq.Server.
//
// The only task today is the asynchronous company batch create.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/company-api/internal/config"
	"github.com/deppfellow/company-api/internal/metrics"
	"github.com/deppfellow/company-api/internal/model"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	// server runs worker processes that pull tasks from Redis and execute handlers.
	server *asynq.Server

	logger    *zerolog.Logger
	metrics   *metrics.Metrics
	companies CompanyBatchCreator
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Concurrency = 10 is split across queues by weight, so roughly six of ten
// workers serve "critical", three "default" and one "low".
func NewJobService(logger *zerolog.Logger, cfg *config.Config, m *metrics.Metrics) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical":   6,
				QueueDefault: 3,
				"low":        1,
			},
			Logger:   asynqLogger{logger: logger},
			LogLevel: asynq.WarnLevel,
		},
	)

	return &JobService{
		Client:  client,
		server:  server,
		logger:  logger,
		metrics: m,
	}
}

// Start registers the task handlers and starts the worker server.
// asynq.Server.Start does not block; Stop shuts it down.
func (j *JobService) Start() error {
	if j.companies == nil {
		return errors.New("job handlers not initialized")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskCompanyBatchCreate, j.handleCompanyBatchTask)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return fmt.Errorf("starting job server: %w", err)
	}

	return nil
}

// Stop gracefully stops the job server and closes client resources.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("closing job client")
	}
}

// EnqueueCompanyBatch queues companies for an asynchronous batch create and
// returns the task id.
func (j *JobService) EnqueueCompanyBatch(ctx context.Context, companies []model.CreateCompanyPayload) (string, error) {
	task, err := NewCompanyBatchTask(companies)
	if err != nil {
		return "", fmt.Errorf("building company batch task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueueing company batch task: %w", err)
	}

	j.logger.Info().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Int("companies", len(companies)).
		Msg("Enqueued company batch task")

	return info.ID, nil
}

// asynqLogger routes Asynq's own logs through zerolog.
type asynqLogger struct {
	logger *zerolog.Logger
}

func (l asynqLogger) log(e *zerolog.Event, args []any) {
	e.Str("component", "asynq").Msg(fmt.Sprint(args...))
}

func (l asynqLogger) Debug(args ...any) { l.log(l.logger.Debug(), args) }

func (l asynqLogger) Info(args ...any) { l.log(l.logger.Info(), args) }

func (l asynqLogger) Warn(args ...any) { l.log(l.logger.Warn(), args) }

func (l asynqLogger) Error(args ...any) { l.log(l.logger.Error(), args) }

func (l asynqLogger) Fatal(args ...any) { l.log(l.logger.Fatal(), args) }
