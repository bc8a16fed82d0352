package handler

import (
	"testing"

	"github.com/deppfellow/company-api/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNewRequestReturnsFreshValue(t *testing.T) {
	prototype := &model.CreateCompanyPayload{}

	first := newRequest(prototype)
	first.Name = "Acme"
	second := newRequest(prototype)

	assert.NotSame(t, prototype, first)
	assert.NotSame(t, first, second)
	assert.Empty(t, second.Name)
	assert.Empty(t, prototype.Name)
}

func TestNewRequestSlicePayload(t *testing.T) {
	prototype := &model.CreateCompaniesPayload{}

	req := newRequest(prototype)
	*req = append(*req, model.CreateCompanyPayload{Name: "Acme"})

	assert.Empty(t, *prototype)
}
