package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/deppfellow/company-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCompanyPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload CreateCompanyPayload
		wantErr bool
	}{
		{"valid", CreateCompanyPayload{Name: "Acme", Address: "1 Road", Country: "US"}, false},
		{"name only", CreateCompanyPayload{Name: "Acme"}, false},
		{"missing name", CreateCompanyPayload{Country: "US"}, true},
		{"name too long", CreateCompanyPayload{Name: strings.Repeat("a", 101)}, true},
		{"country too long", CreateCompanyPayload{Name: "Acme", Country: strings.Repeat("c", 51)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateCompanyPayloadRequiresID(t *testing.T) {
	assert.Error(t, (&UpdateCompanyPayload{Name: "Acme"}).Validate())
	assert.NoError(t, (&UpdateCompanyPayload{ID: 1, Name: "Acme"}).Validate())
}

func TestCreateCompaniesPayloadValidate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var p CreateCompaniesPayload
		err := p.Validate()

		var custom validation.CustomValidationErrors
		require.True(t, errors.As(err, &custom))
		assert.Equal(t, "companies", custom[0].Field)
	})

	t.Run("indexes failing elements", func(t *testing.T) {
		p := CreateCompaniesPayload{
			{Name: "Acme"},
			{Country: "DE"},
			{Name: "Initech"},
			{Name: strings.Repeat("x", 101)},
		}
		err := p.Validate()

		var custom validation.CustomValidationErrors
		require.True(t, errors.As(err, &custom))
		require.Len(t, custom, 2)
		assert.Equal(t, "1.name", custom[0].Field)
		assert.Equal(t, "is required", custom[0].Message)
		assert.Equal(t, "3.name", custom[1].Field)
	})

	t.Run("valid", func(t *testing.T) {
		p := CreateCompaniesPayload{{Name: "Acme"}, {Name: "Globex"}}
		assert.NoError(t, p.Validate())
	})
}

func TestAttachEmployees(t *testing.T) {
	c := Company{ID: 1}

	AttachEmployees(&c, nil)
	require.NotNil(t, c.Employees)
	assert.Empty(t, c.Employees)

	AppendEmployee(&c, Employee{ID: 2, CompanyID: 1})
	AppendEmployee(&c, Employee{ID: 3, CompanyID: 1})
	assert.Equal(t, []int{2, 3}, []int{c.Employees[0].ID, c.Employees[1].ID})
}
