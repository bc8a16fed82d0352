package repository

import (
	"github.com/deppfellow/company-api/internal/server"
)

// Repositories is a container for all repository instances, built once at
// startup and handed to the service layer.
type Repositories struct {
	Company *CompanyRepository
}

// NewRepositories constructs the repository container on the server's
// connection pool, logger and metrics.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Company: NewCompanyRepository(
			s.DB.Pool,
			s.Logger,
			s.Metrics,
			s.Config.Observability.Logging.SlowQueryThreshold,
		),
	}
}
