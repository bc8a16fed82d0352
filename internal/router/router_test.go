package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/deppfellow/company-api/internal/config"
	"github.com/deppfellow/company-api/internal/handler"
	"github.com/deppfellow/company-api/internal/lib/export"
	"github.com/deppfellow/company-api/internal/metrics"
	"github.com/deppfellow/company-api/internal/repository"
	"github.com/deppfellow/company-api/internal/server"
	"github.com/deppfellow/company-api/internal/service"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var companyColumns = []string{"id", "name", "address", "country"}

const (
	selectCompanyByID = `SELECT id, name, address, country FROM companies WHERE id = $1`
	selectCompanies   = `SELECT id, name, address, country FROM companies ORDER BY id`
	insertCompany     = `INSERT INTO companies (name, address, country) VALUES ($1, $2, $3)`
	updateCompany     = `UPDATE companies SET`
	deleteCompany     = `DELETE FROM companies WHERE id = $1`
	joinCompanies     = `FROM companies c`
)

type testAPI struct {
	echo *echo.Echo
	mock pgxmock.PgxPoolIface
}

func newTestAPI(t *testing.T, rateLimit float64) *testAPI {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				CORSAllowedOrigins: []string{"*"},
				RateLimit:          rateLimit,
			},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger:  &logger,
		Metrics: metrics.New(),
	}

	repos := &repository.Repositories{
		Company: repository.NewCompanyRepository(mock, &logger, s.Metrics, 0),
	}
	services, err := service.NewServices(s, repos)
	require.NoError(t, err)

	return &testAPI{
		echo: NewRouter(s, handler.NewHandlers(s, services)),
		mock: mock,
	}
}

func (a *testAPI) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func TestListCompanies(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectQuery(q(selectCompanies)).
		WillReturnRows(pgxmock.NewRows(companyColumns).AddRow(1, "Acme", "1 Road", "US"))

	rec := api.do(t, http.MethodGet, "/api/company", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Acme","address":"1 Road","country":"US","employees":[]}]`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestListCompaniesEmpty(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectQuery(q(selectCompanies)).WillReturnRows(pgxmock.NewRows(companyColumns))

	rec := api.do(t, http.MethodGet, "/api/company", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetCompanyNotFound(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectQuery(q(selectCompanyByID)).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows(companyColumns))

	rec := api.do(t, http.MethodGet, "/api/company/5", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "COMPANY_NOT_FOUND", body["code"])
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestGetCompanyRejectsBadID(t *testing.T) {
	api := newTestAPI(t, 0)

	for _, id := range []string{"abc", "0", "-3"} {
		rec := api.do(t, http.MethodGet, "/api/company/"+id, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
	}
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestCreateCompany(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectQuery(q(insertCompany)).
		WithArgs("Acme", "1 Road", "US").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(41))

	rec := api.do(t, http.MethodPost, "/api/company", `{"name":"Acme","address":"1 Road","country":"US"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/company/41", rec.Header().Get(echo.HeaderLocation))
	assert.JSONEq(t, `{"id":41,"name":"Acme","address":"1 Road","country":"US","employees":[]}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestCreateCompanyValidation(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.do(t, http.MethodPost, "/api/company", `{"address":"1 Road"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	fieldErrors, ok := body["errors"].([]any)
	require.True(t, ok, "errors = %v", body["errors"])
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, "name", fieldErrors[0].(map[string]any)["field"])
}

func TestCreateCompanyDuplicate(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectQuery(q(insertCompany)).
		WithArgs("Acme", "", "").
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			Message:        `duplicate key value violates unique constraint "companies_name_key"`,
			TableName:      "companies",
			ConstraintName: "companies_name_key",
		})

	rec := api.do(t, http.MethodPost, "/api/company", `{"name":"Acme"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "COMPANY_ALREADY_EXISTS", decodeError(t, rec)["code"])
}

func TestUpdateCompany(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectExec(q(updateCompany)).
		WithArgs(9, "Acme", "New Road", "US").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	rec := api.do(t, http.MethodPut, "/api/company/9", `{"name":"Acme","address":"New Road","country":"US"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Company updated successfully"}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestUpdateCompanyMissing(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectExec(q(updateCompany)).
		WithArgs(9, "Acme", "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	rec := api.do(t, http.MethodPut, "/api/company/9", `{"name":"Acme"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCompanyIsIdempotent(t *testing.T) {
	api := newTestAPI(t, 0)
	for range 2 {
		api.mock.ExpectExec(q(deleteCompany)).
			WithArgs(3).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
	}

	for range 2 {
		rec := api.do(t, http.MethodDelete, "/api/company/3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Company deleted successfully"}`, rec.Body.String())
	}
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestMultipleMapping(t *testing.T) {
	api := newTestAPI(t, 0)
	columns := append(append([]string{}, companyColumns...), "id", "name", "age", "position", "salary", "company_id")
	api.mock.ExpectQuery(q(joinCompanies)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(1, "Acme", "1 Road", "US", 10, "Wile", 40, "Engineer", "5000.50", 1).
			AddRow(1, "Acme", "1 Road", "US", 11, "Road", 3, "Runner", "100", 1))

	rec := api.do(t, http.MethodGet, "/api/company/MultipleMapping", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var companies []struct {
		ID        int `json:"id"`
		Employees []struct {
			ID        int    `json:"id"`
			Salary    string `json:"salary"`
			CompanyID int    `json:"companyId"`
		} `json:"employees"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &companies))
	require.Len(t, companies, 1)
	require.Len(t, companies[0].Employees, 2)
	assert.Equal(t, "5000.5", companies[0].Employees[0].Salary)
	assert.Equal(t, 1, companies[0].Employees[1].CompanyID)
}

func TestCreateMultipleCompanies(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectBegin()
	api.mock.ExpectExec(q(insertCompany)).WithArgs("Acme", "", "US").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	api.mock.ExpectExec(q(insertCompany)).WithArgs("Globex", "", "DE").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	api.mock.ExpectCommit()

	rec := api.do(t, http.MethodPost, "/api/company/CreateMultipleCompanies",
		`[{"name":"Acme","country":"US"},{"name":"Globex","country":"DE"}]`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Companies added successfully"}`, rec.Body.String())
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestCreateMultipleCompaniesRollsBackAndReportsCause(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectBegin()
	api.mock.ExpectExec(q(insertCompany)).WithArgs("Acme", "", "").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	api.mock.ExpectExec(q(insertCompany)).WithArgs("Globex", "", "").
		WillReturnError(&pgconn.PgError{Code: "XX000", Message: "could not extend file"})
	api.mock.ExpectRollback()

	rec := api.do(t, http.MethodPost, "/api/company/CreateMultipleCompanies", `[{"name":"Acme"},{"name":"Globex"}]`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeError(t, rec)["message"], "could not extend file")
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestCreateMultipleCompaniesRejectsEmptyBatch(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.do(t, http.MethodPost, "/api/company/CreateMultipleCompanies", `[]`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, api.mock.ExpectationsWereMet())
}

func TestCreateMultipleCompaniesReportsElementIndex(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.do(t, http.MethodPost, "/api/company/CreateMultipleCompanies", `[{"name":"Acme"},{"country":"DE"}]`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fieldErrors := decodeError(t, rec)["errors"].([]any)
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, "1.name", fieldErrors[0].(map[string]any)["field"])
}

func TestEnqueueWithoutRedis(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.do(t, http.MethodPost, "/api/company/CreateMultipleCompanies/async", `[{"name":"Acme"}]`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportCompanies(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectQuery(q(selectCompanies)).
		WillReturnRows(pgxmock.NewRows(companyColumns).AddRow(1, "Acme", "1 Road", "US"))
	api.mock.ExpectQuery(q(joinCompanies)).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, companyColumns...), "id", "name", "age", "position", "salary", "company_id")))

	rec := api.do(t, http.MethodGet, "/api/company/export", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "attachment; filename=companies.xlsx", rec.Header().Get(echo.HeaderContentDisposition))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.do(t, http.MethodGet, "/api/nothing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeError(t, rec)["message"])
}

func TestMetricsRoute(t *testing.T) {
	api := newTestAPI(t, 0)
	api.mock.ExpectQuery(q(selectCompanies)).WillReturnRows(pgxmock.NewRows(companyColumns))
	api.do(t, http.MethodGet, "/api/company", "")

	rec := api.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `companyapi_http_requests_total{method="GET",route="/api/company",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `companyapi_storage_operation_duration_seconds_count{operation="list_companies",outcome="ok"} 1`)
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, 1)
	api.mock.ExpectQuery(q(selectCompanies)).WillReturnRows(pgxmock.NewRows(companyColumns))

	first := api.do(t, http.MethodGet, "/api/company", "")
	second := api.do(t, http.MethodGet, "/api/company", "")

	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, second)["code"])
}
