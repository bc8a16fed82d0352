// Package handler is the first layer after the router.
//
// It binds and validates requests using the validation package, calls the
// service layer, and writes the response.
package handler

import (
	"github.com/deppfellow/company-api/internal/server"
	"github.com/deppfellow/company-api/internal/service"
)

// Handlers groups all HTTP handlers so the router receives one value.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Company *CompanyHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Company: NewCompanyHandler(s, services.Company),
	}
}
