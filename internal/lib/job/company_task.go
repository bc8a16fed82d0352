package job

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/company-api/internal/model"
	"github.com/hibiken/asynq"
)

const (
	// TaskCompanyBatchCreate is the task type stored in Redis for an
	// asynchronous batch create.
	TaskCompanyBatchCreate = "company:batch_create"

	// QueueDefault receives every task this service enqueues.
	QueueDefault = "default"
)

// CompanyBatchPayload is the JSON payload of a batch create task.
type CompanyBatchPayload struct {
	Companies []model.CreateCompanyPayload `json:"companies"`
}

// NewCompanyBatchTask constructs an Asynq task that creates companies in
// one transaction when processed.
//
// Task options:
//   - MaxRetry(3): retry transient storage failures up to 3 times
//   - Queue("default")
//   - Timeout(30s): cancel the handler's context after 30 seconds
func NewCompanyBatchTask(companies []model.CreateCompanyPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(CompanyBatchPayload{Companies: companies})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskCompanyBatchCreate,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}
