package handler

import (
	"strconv"

	"github.com/deppfellow/company-api/internal/model"
	"github.com/deppfellow/company-api/internal/server"
	"github.com/deppfellow/company-api/internal/service"
	"github.com/labstack/echo/v4"
)

// CompanyBasePath is the prefix of every company route.
const CompanyBasePath = "/api/company"

// MessageResponse is the body of writes that return no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

// TaskResponse is the body of an accepted asynchronous batch.
type TaskResponse struct {
	TaskID string `json:"taskId"`
}

type CompanyHandler struct {
	Handler
	companyService *service.CompanyService
}

func NewCompanyHandler(s *server.Server, companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		Handler:        NewHandler(s),
		companyService: companyService,
	}
}

func (h *CompanyHandler) ListCompanies(c echo.Context, _ *model.ListCompaniesPayload) ([]model.Company, error) {
	return h.companyService.ListCompanies(c.Request().Context())
}

func (h *CompanyHandler) GetCompany(c echo.Context, payload *model.GetCompanyByIDPayload) (*model.Company, error) {
	return h.companyService.GetCompany(c.Request().Context(), payload.ID)
}

// CreateCompany stores the company and points Location at it.
func (h *CompanyHandler) CreateCompany(c echo.Context, payload *model.CreateCompanyPayload) (*model.Company, error) {
	company, err := h.companyService.CreateCompany(c.Request().Context(), payload)
	if err != nil {
		return nil, err
	}

	c.Response().Header().Set(echo.HeaderLocation, CompanyBasePath+"/"+strconv.Itoa(company.ID))

	return company, nil
}

func (h *CompanyHandler) UpdateCompany(c echo.Context, payload *model.UpdateCompanyPayload) (MessageResponse, error) {
	if err := h.companyService.UpdateCompany(c.Request().Context(), payload); err != nil {
		return MessageResponse{}, err
	}
	return MessageResponse{Message: "Company updated successfully"}, nil
}

func (h *CompanyHandler) DeleteCompany(c echo.Context, payload *model.GetCompanyByIDPayload) (MessageResponse, error) {
	if err := h.companyService.DeleteCompany(c.Request().Context(), payload.ID); err != nil {
		return MessageResponse{}, err
	}
	return MessageResponse{Message: "Company deleted successfully"}, nil
}

// GetCompanyByEmployee takes an employee id and returns that employee's company.
func (h *CompanyHandler) GetCompanyByEmployee(c echo.Context, payload *model.GetCompanyByIDPayload) (*model.Company, error) {
	return h.companyService.GetCompanyByEmployee(c.Request().Context(), payload.ID)
}

func (h *CompanyHandler) GetCompanyWithEmployees(c echo.Context, payload *model.GetCompanyByIDPayload) (*model.Company, error) {
	return h.companyService.GetCompanyWithEmployees(c.Request().Context(), payload.ID)
}

func (h *CompanyHandler) ListCompaniesWithEmployees(c echo.Context, _ *model.ListCompaniesPayload) ([]model.Company, error) {
	return h.companyService.ListCompaniesWithEmployees(c.Request().Context())
}

func (h *CompanyHandler) CreateCompanies(c echo.Context, payload *model.CreateCompaniesPayload) (MessageResponse, error) {
	if err := h.companyService.CreateCompanies(c.Request().Context(), *payload); err != nil {
		return MessageResponse{}, err
	}
	return MessageResponse{Message: "Companies added successfully"}, nil
}

func (h *CompanyHandler) EnqueueCompanies(c echo.Context, payload *model.CreateCompaniesPayload) (TaskResponse, error) {
	taskID, err := h.companyService.EnqueueCompanyBatch(c.Request().Context(), *payload)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{TaskID: taskID}, nil
}

func (h *CompanyHandler) ExportCompanies(c echo.Context, _ *model.ListCompaniesPayload) ([]byte, error) {
	return h.companyService.ExportCompanies(c.Request().Context())
}
