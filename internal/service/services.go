// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, turns "no row" results into
// not-found errors, and calls repository methods to interact with the data.
package service

import (
	"github.com/deppfellow/company-api/internal/lib/job"
	"github.com/deppfellow/company-api/internal/repository"
	"github.com/deppfellow/company-api/internal/server"
)

type Services struct {
	Company *CompanyService
	Job     *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Company: NewCompanyService(s, repos.Company),
		Job:     s.Job,
	}, nil
}
