package service

import (
	"context"
	"slices"

	"github.com/deppfellow/company-api/internal/errs"
	"github.com/deppfellow/company-api/internal/lib/export"
	"github.com/deppfellow/company-api/internal/lib/job"
	"github.com/deppfellow/company-api/internal/model"
	"github.com/deppfellow/company-api/internal/repository"
	"github.com/deppfellow/company-api/internal/server"
)

var companyNotFoundCode = "COMPANY_NOT_FOUND"

type CompanyService struct {
	server *server.Server
	repo   *repository.CompanyRepository
	job    *job.JobService
}

func NewCompanyService(s *server.Server, repo *repository.CompanyRepository) *CompanyService {
	return &CompanyService{
		server: s,
		repo:   repo,
		job:    s.Job,
	}
}

func companyNotFound() *errs.HTTPError {
	return errs.NewNotFoundError("Company not found", true, &companyNotFoundCode)
}

// ListCompanies returns every company; an empty table yields an empty list.
func (s *CompanyService) ListCompanies(ctx context.Context) ([]model.Company, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []model.Company{}
	}
	return companies, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, id int) (*model.Company, error) {
	company, err := s.repo.GetCompanyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companyNotFound()
	}
	return company, nil
}

// GetCompanyByEmployee resolves the employer of the employee with id.
func (s *CompanyService) GetCompanyByEmployee(ctx context.Context, employeeID int) (*model.Company, error) {
	company, err := s.repo.GetCompanyByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companyNotFound()
	}
	return company, nil
}

func (s *CompanyService) CreateCompany(ctx context.Context, payload *model.CreateCompanyPayload) (*model.Company, error) {
	return s.repo.CreateCompany(ctx, payload)
}

// UpdateCompany reports a 404 when no row has payload.ID.
func (s *CompanyService) UpdateCompany(ctx context.Context, payload *model.UpdateCompanyPayload) error {
	affected, err := s.repo.UpdateCompany(ctx, payload)
	if err != nil {
		return err
	}
	if affected == 0 {
		return companyNotFound()
	}
	return nil
}

// DeleteCompany succeeds whether or not the company existed.
func (s *CompanyService) DeleteCompany(ctx context.Context, id int) error {
	return s.repo.DeleteCompany(ctx, id)
}

func (s *CompanyService) GetCompanyWithEmployees(ctx context.Context, id int) (*model.Company, error) {
	company, err := s.repo.GetCompanyWithEmployees(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companyNotFound()
	}
	return company, nil
}

// ListCompaniesWithEmployees returns the companies that have employees,
// each with its staff.
func (s *CompanyService) ListCompaniesWithEmployees(ctx context.Context) ([]model.Company, error) {
	companies, err := s.repo.ListCompaniesWithEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// CreateCompanies stores every company or none of them.
func (s *CompanyService) CreateCompanies(ctx context.Context, companies []model.CreateCompanyPayload) error {
	return s.repo.CreateCompanies(ctx, companies)
}

// EnqueueCompanyBatch hands companies to the background worker and returns
// the task id. It fails with 503 when no job queue is configured.
func (s *CompanyService) EnqueueCompanyBatch(ctx context.Context, companies []model.CreateCompanyPayload) (string, error) {
	if s.job == nil {
		return "", errs.NewServiceUnavailableError("Background jobs are not configured", nil)
	}

	taskID, err := s.job.EnqueueCompanyBatch(ctx, companies)
	if err != nil {
		return "", errs.NewServiceUnavailableError("Failed to enqueue company batch", &errs.Action{
			Type:    errs.ActionTypeRetry,
			Message: "The job queue is unavailable, retry later",
			Value:   "30s",
		})
	}
	return taskID, nil
}

// ExportCompanies renders every company, including those without
// employees, as an xlsx workbook.
func (s *CompanyService) ExportCompanies(ctx context.Context) ([]byte, error) {
	companies, err := s.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}

	staffed, err := s.repo.ListCompaniesWithEmployees(ctx)
	if err != nil {
		return nil, err
	}

	for i := range companies {
		j := slices.IndexFunc(staffed, func(c model.Company) bool { return c.ID == companies[i].ID })
		if j >= 0 {
			model.AttachEmployees(&companies[i], staffed[j].Employees)
		} else {
			model.AttachEmployees(&companies[i], nil)
		}
	}

	return export.Companies(companies)
}
