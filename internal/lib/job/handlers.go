package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deppfellow/company-api/internal/errs"
	"github.com/deppfellow/company-api/internal/model"
	"github.com/deppfellow/company-api/internal/sqlerr"
	"github.com/hibiken/asynq"
)

// CompanyBatchCreator persists a list of companies atomically.
type CompanyBatchCreator interface {
	CreateCompanies(ctx context.Context, companies []model.CreateCompanyPayload) error
}

// InitHandlers sets the dependencies the task handlers call into. It must
// run before Start.
func (j *JobService) InitHandlers(companies CompanyBatchCreator) {
	j.companies = companies
}

// handleCompanyBatchTask processes a batch create task.
//
// Failures the client caused (constraint violations) are not retried;
// everything else goes back to Asynq for a retry.
func (j *JobService) handleCompanyBatchTask(ctx context.Context, t *asynq.Task) (err error) {
	defer func() {
		j.metrics.ObserveJob(TaskCompanyBatchCreate, err)
	}()

	var p CompanyBatchPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal company batch payload: %v: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	logger := j.logger.With().
		Str("type", TaskCompanyBatchCreate).
		Str("task_id", taskID).
		Int("companies", len(p.Companies)).
		Logger()

	logger.Info().Msg("Processing company batch task")

	if err := j.companies.CreateCompanies(ctx, p.Companies); err != nil {
		logger.Error().Err(err).Msg("Failed to create company batch")

		if isPermanent(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	logger.Info().Msg("Successfully created company batch")

	return nil
}

// isPermanent reports whether retrying err cannot succeed.
func isPermanent(err error) bool {
	var httpErr *errs.HTTPError
	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr.Status < 500
	}
	return false
}
