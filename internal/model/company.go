// Package model holds the records the API reads and writes, and the request
// payloads accepted by the HTTP layer.
package model

import "github.com/shopspring/decimal"

// Company is a row of the companies table. Employees is empty unless the
// read assembles a company together with its staff.
type Company struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Country   string     `json:"country"`
	Employees []Employee `json:"employees"`
}

// Employee is a row of the employees table. CompanyID always equals the ID
// of the Company it is attached to.
type Employee struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Age       int             `json:"age"`
	Position  string          `json:"position"`
	Salary    decimal.Decimal `json:"salary"`
	CompanyID int             `json:"companyId"`
}

// AttachEmployees replaces c.Employees, keeping the JSON form "[]" for an
// empty set.
func AttachEmployees(c *Company, employees []Employee) {
	if employees == nil {
		employees = []Employee{}
	}
	c.Employees = employees
}

// AppendEmployee adds one employee to c.
func AppendEmployee(c *Company, e Employee) {
	c.Employees = append(c.Employees, e)
}
