package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/deppfellow/company-api/internal/database"
	"github.com/deppfellow/company-api/internal/metrics"
	"github.com/deppfellow/company-api/internal/model"
	"github.com/deppfellow/company-api/internal/rowmap"
	"github.com/deppfellow/company-api/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	listCompaniesSQL = `SELECT id, name, address, country FROM companies ORDER BY id`

	getCompanyByIDSQL = `SELECT id, name, address, country FROM companies WHERE id = $1`

	createCompanySQL = `INSERT INTO companies (name, address, country) VALUES ($1, $2, $3) RETURNING id`

	insertCompanySQL = `INSERT INTO companies (name, address, country) VALUES ($1, $2, $3)`

	updateCompanySQL = `UPDATE companies SET name = $2, address = $3, country = $4 WHERE id = $1`

	deleteCompanySQL = `DELETE FROM companies WHERE id = $1`

	getCompanyByEmployeeIDSQL = `SELECT id, name, address, country FROM ShowCompanyByEmployeeId($1)`

	listEmployeesByCompanySQL = `SELECT id, name, age, position, salary, company_id FROM employees WHERE company_id = $1 ORDER BY id`

	listCompaniesWithEmployeesSQL = `SELECT c.id, c.name, c.address, c.country, e.id, e.name, e.age, e.position, e.salary, e.company_id
FROM companies c
JOIN employees e ON c.id = e.company_id
ORDER BY c.id, e.id`
)

// CompanyRepository runs the company and employee statements. Every error it
// returns is a *sqlerr.Error; a missing row is reported as a nil result.
type CompanyRepository struct {
	db      database.Pool
	logger  *zerolog.Logger
	metrics *metrics.Metrics

	// slowQuery is the latency above which an operation is logged at warn.
	// Zero disables it.
	slowQuery time.Duration
}

func NewCompanyRepository(db database.Pool, logger *zerolog.Logger, m *metrics.Metrics, slowQuery time.Duration) *CompanyRepository {
	return &CompanyRepository{
		db:        db,
		logger:    logger,
		metrics:   m,
		slowQuery: slowQuery,
	}
}

// scanCompany decodes (id, name, address, country). Employees starts empty.
func scanCompany(row pgx.CollectableRow) (model.Company, error) {
	c := model.Company{Employees: []model.Employee{}}
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Country)
	return c, err
}

// scanEmployee decodes (id, name, age, position, salary, company_id).
func scanEmployee(row pgx.CollectableRow) (model.Employee, error) {
	var e model.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Age, &e.Position, &e.Salary, &e.CompanyID)
	return e, err
}

// companyEmployeeRow is one row of the companies JOIN employees read.
type companyEmployeeRow struct {
	Company  model.Company
	Employee model.Employee
}

// scanCompanyEmployee decodes the company columns followed by the employee
// columns of a JOIN row.
func scanCompanyEmployee(row pgx.CollectableRow) (companyEmployeeRow, error) {
	var r companyEmployeeRow
	err := row.Scan(
		&r.Company.ID, &r.Company.Name, &r.Company.Address, &r.Company.Country,
		&r.Employee.ID, &r.Employee.Name, &r.Employee.Age, &r.Employee.Position, &r.Employee.Salary, &r.Employee.CompanyID,
	)
	return r, err
}

// observe records metrics for op and logs it when it was slow or failed.
// It returns err flattened into a *sqlerr.Error.
func (r *CompanyRepository) observe(ctx context.Context, op string, start time.Time, err error) error {
	elapsed := time.Since(start)
	r.metrics.ObserveStorage(op, elapsed, err)

	logger := r.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = l
	}

	if err != nil {
		err = sqlerr.Wrap(op, pkgerrors.WithStack(err))
		logger.Error().Stack().Err(err).Str("operation", op).Dur("duration", elapsed).Msg("storage operation failed")
		return err
	}

	if r.slowQuery > 0 && elapsed > r.slowQuery {
		logger.Warn().Str("operation", op).Dur("duration", elapsed).Msg("slow storage operation")
	}

	return nil
}

// ListCompanies returns every company ordered by id, without employees.
func (r *CompanyRepository) ListCompanies(ctx context.Context) ([]model.Company, error) {
	start := time.Now()

	rows, err := r.db.Query(ctx, listCompaniesSQL)
	if err != nil {
		return nil, r.observe(ctx, "list_companies", start, err)
	}

	companies, err := pgx.CollectRows(rows, scanCompany)
	if err != nil {
		return nil, r.observe(ctx, "list_companies", start, err)
	}

	return companies, r.observe(ctx, "list_companies", start, nil)
}

// GetCompanyByID returns the company with id, or nil when there is none.
func (r *CompanyRepository) GetCompanyByID(ctx context.Context, id int) (*model.Company, error) {
	start := time.Now()

	company, err := r.queryOneCompany(ctx, getCompanyByIDSQL, id)

	return company, r.observe(ctx, "get_company", start, err)
}

// GetCompanyByEmployeeID returns the company employing the employee with
// id, as resolved by the ShowCompanyByEmployeeId routine, or nil.
func (r *CompanyRepository) GetCompanyByEmployeeID(ctx context.Context, id int) (*model.Company, error) {
	start := time.Now()

	company, err := r.queryOneCompany(ctx, getCompanyByEmployeeIDSQL, id)

	return company, r.observe(ctx, "get_company_by_employee", start, err)
}

// queryOneCompany runs a statement returning zero or one company row.
func (r *CompanyRepository) queryOneCompany(ctx context.Context, sql string, args ...any) (*model.Company, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	company, err := pgx.CollectOneRow(rows, scanCompany)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &company, nil
}

// CreateCompany inserts a company and returns it with its new id.
func (r *CompanyRepository) CreateCompany(ctx context.Context, payload *model.CreateCompanyPayload) (*model.Company, error) {
	start := time.Now()

	company := &model.Company{
		Name:      payload.Name,
		Address:   payload.Address,
		Country:   payload.Country,
		Employees: []model.Employee{},
	}

	err := r.db.QueryRow(ctx, createCompanySQL, payload.Name, payload.Address, payload.Country).Scan(&company.ID)
	if err != nil {
		return nil, r.observe(ctx, "create_company", start, err)
	}

	return company, r.observe(ctx, "create_company", start, nil)
}

// UpdateCompany overwrites name, address and country of the company with
// payload.ID and reports how many rows changed (0 or 1).
func (r *CompanyRepository) UpdateCompany(ctx context.Context, payload *model.UpdateCompanyPayload) (int64, error) {
	start := time.Now()

	tag, err := r.db.Exec(ctx, updateCompanySQL, payload.ID, payload.Name, payload.Address, payload.Country)
	if err != nil {
		return 0, r.observe(ctx, "update_company", start, err)
	}

	return tag.RowsAffected(), r.observe(ctx, "update_company", start, nil)
}

// DeleteCompany removes the company with id and, by cascade, its employees.
// Deleting an id that does not exist is not an error.
func (r *CompanyRepository) DeleteCompany(ctx context.Context, id int) error {
	start := time.Now()

	_, err := r.db.Exec(ctx, deleteCompanySQL, id)

	return r.observe(ctx, "delete_company", start, err)
}

// GetCompanyWithEmployees returns the company with id and its employees
// ordered by id, or nil when the company does not exist.
//
// The company row and the employee rows are read by two statements inside
// one transaction, on one connection.
func (r *CompanyRepository) GetCompanyWithEmployees(ctx context.Context, id int) (*model.Company, error) {
	start := time.Now()

	company, err := r.getCompanyWithEmployees(ctx, id)

	return company, r.observe(ctx, "get_company_with_employees", start, err)
}

func (r *CompanyRepository) getCompanyWithEmployees(ctx context.Context, id int) (*model.Company, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	rows, err := tx.Query(ctx, getCompanyByIDSQL, id)
	if err != nil {
		return nil, err
	}
	companies, err := pgx.CollectRows(rows, scanCompany)
	if err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, listEmployeesByCompanySQL, id)
	if err != nil {
		return nil, err
	}
	employees, err := pgx.CollectRows(rows, scanEmployee)
	if err != nil {
		return nil, err
	}

	committed = true
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	company, ok := rowmap.WithChildren(companies, employees, model.AttachEmployees)
	if !ok {
		return nil, nil
	}

	return &company, nil
}

// ListCompaniesWithEmployees returns every company that has at least one
// employee, each with its employees, ordered by company id then employee id.
func (r *CompanyRepository) ListCompaniesWithEmployees(ctx context.Context) ([]model.Company, error) {
	start := time.Now()

	rows, err := r.db.Query(ctx, listCompaniesWithEmployeesSQL)
	if err != nil {
		return nil, r.observe(ctx, "list_companies_with_employees", start, err)
	}

	flat, err := pgx.CollectRows(rows, scanCompanyEmployee)
	if err != nil {
		return nil, r.observe(ctx, "list_companies_with_employees", start, err)
	}

	companies := rowmap.Group(
		slices.Values(flat),
		func(row companyEmployeeRow) (model.Company, model.Employee, bool) {
			return row.Company, row.Employee, true
		},
		func(c model.Company) int { return c.ID },
		model.AppendEmployee,
	)

	return companies, r.observe(ctx, "list_companies_with_employees", start, nil)
}

// CreateCompanies inserts every company in one transaction. Either all are
// stored or, on the first failure, none are.
func (r *CompanyRepository) CreateCompanies(ctx context.Context, payloads []model.CreateCompanyPayload) error {
	start := time.Now()

	writes := make([]database.Write, 0, len(payloads))
	for _, p := range payloads {
		writes = append(writes, database.Write{
			SQL:  insertCompanySQL,
			Args: []any{p.Name, p.Address, p.Country},
		})
	}

	err := database.ExecBatch(ctx, r.db, writes)
	r.metrics.ObserveBatch(len(writes), err)

	return r.observe(ctx, "create_companies", start, err)
}

// Ping checks that a connection can be acquired and used.
func (r *CompanyRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
