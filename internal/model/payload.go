package model

import (
	"github.com/deppfellow/company-api/internal/validation"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateCompanyPayload is the body of POST /api/company.
type CreateCompanyPayload struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"max=255"`
	Country string `json:"country" validate:"max=50"`
}

func (p *CreateCompanyPayload) Validate() error {
	return validate.Struct(p)
}

// UpdateCompanyPayload is the body of PUT /api/company/:id.
type UpdateCompanyPayload struct {
	ID      int    `param:"id" json:"-" validate:"required,gte=1"`
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"max=255"`
	Country string `json:"country" validate:"max=50"`
}

func (p *UpdateCompanyPayload) Validate() error {
	return validate.Struct(p)
}

// GetCompanyByIDPayload carries a company or employee id from the path.
type GetCompanyByIDPayload struct {
	ID int `param:"id" validate:"required,gte=1"`
}

func (p *GetCompanyByIDPayload) Validate() error {
	return validate.Struct(p)
}

// ListCompaniesPayload is the (empty) request of the collection reads.
type ListCompaniesPayload struct{}

func (p *ListCompaniesPayload) Validate() error {
	return nil
}

// CreateCompaniesPayload is the JSON array accepted by the batch create
// endpoints.
type CreateCompaniesPayload []CreateCompanyPayload

// Validate requires at least one element and checks every element. Field
// names of failing elements are prefixed with their index ("1.name").
func (p *CreateCompaniesPayload) Validate() error {
	if p == nil || len(*p) == 0 {
		return validation.CustomValidationErrors{
			{Field: "companies", Message: "must contain at least one company"},
		}
	}

	var failures validation.CustomValidationErrors
	for i := range *p {
		if err := validate.Struct(&(*p)[i]); err != nil {
			failures = append(failures, validation.PrefixFieldErrors(i, err)...)
		}
	}

	if len(failures) > 0 {
		return failures
	}
	return nil
}
