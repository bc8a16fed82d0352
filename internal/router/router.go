// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and maps the company and system routes to
// their handlers.
package router

import (
	"net/http"

	"github.com/deppfellow/company-api/internal/handler"
	"github.com/deppfellow/company-api/internal/lib/export"
	"github.com/deppfellow/company-api/internal/middleware"
	"github.com/deppfellow/company-api/internal/model"
	"github.com/deppfellow/company-api/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance serving every route.
//
// Middleware runs outermost first: request id, New Relic transaction,
// trace attributes, request-scoped logger, access log, metrics, CORS, secure
// headers, rate limit, panic recovery.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		s.Metrics.Middleware(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.RateLimit.Limit(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)
	registerCompanyRoutes(router, h)

	return router
}

func registerCompanyRoutes(r *echo.Echo, h *handler.Handlers) {
	ch := h.Company
	g := r.Group(handler.CompanyBasePath)

	g.GET("", handler.Handle(ch.Handler, ch.ListCompanies, http.StatusOK, &model.ListCompaniesPayload{}))
	g.POST("", handler.Handle(ch.Handler, ch.CreateCompany, http.StatusCreated, &model.CreateCompanyPayload{}))

	g.GET("/MultipleMapping", handler.Handle(ch.Handler, ch.ListCompaniesWithEmployees, http.StatusOK, &model.ListCompaniesPayload{}))
	g.GET("/ByEmployeeId/:id", handler.Handle(ch.Handler, ch.GetCompanyByEmployee, http.StatusOK, &model.GetCompanyByIDPayload{}))
	g.POST("/CreateMultipleCompanies", handler.Handle(ch.Handler, ch.CreateCompanies, http.StatusOK, &model.CreateCompaniesPayload{}))
	g.POST("/CreateMultipleCompanies/async", handler.Handle(ch.Handler, ch.EnqueueCompanies, http.StatusAccepted, &model.CreateCompaniesPayload{}))
	g.GET("/export", handler.HandleFile(ch.Handler, ch.ExportCompanies, http.StatusOK, &model.ListCompaniesPayload{}, "companies.xlsx", export.ContentTypeXLSX))

	g.GET("/:id", handler.Handle(ch.Handler, ch.GetCompany, http.StatusOK, &model.GetCompanyByIDPayload{}))
	g.PUT("/:id", handler.Handle(ch.Handler, ch.UpdateCompany, http.StatusOK, &model.UpdateCompanyPayload{}))
	g.DELETE("/:id", handler.Handle(ch.Handler, ch.DeleteCompany, http.StatusOK, &model.GetCompanyByIDPayload{}))
	g.GET("/:id/MultipleResult", handler.Handle(ch.Handler, ch.GetCompanyWithEmployees, http.StatusOK, &model.GetCompanyByIDPayload{}))
}
