package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/company-api/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type samplePayload struct {
	ID   int    `param:"id" validate:"required,gte=1"`
	Name string `json:"name" validate:"required,max=5"`
}

func (p *samplePayload) Validate() error {
	return validate.Struct(p)
}

func newContext(body, id string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestBindAndValidate(t *testing.T) {
	var p samplePayload
	require.NoError(t, BindAndValidate(newContext(`{"name":"acme"}`, "7"), &p))
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "acme", p.Name)
}

func TestBindAndValidateFieldErrors(t *testing.T) {
	err := BindAndValidate(newContext(`{"name":"toolong"}`, "0"), &samplePayload{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)

	fields := map[string]string{}
	for _, fe := range httpErr.Errors {
		fields[fe.Field] = fe.Error
	}
	assert.Equal(t, "is required", fields["id"])
	assert.Equal(t, "must not exceed 5 characters", fields["name"])
}

func TestBindAndValidateMalformedBody(t *testing.T) {
	err := BindAndValidate(newContext(`{"name":`, "1"), &samplePayload{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, httpErr.Errors)
}

func TestPrefixFieldErrors(t *testing.T) {
	err := validate.Struct(&samplePayload{ID: 1})

	got := PrefixFieldErrors(4, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4.name", got[0].Field)
	assert.Equal(t, "is required", got[0].Message)

	other := PrefixFieldErrors(2, errors.New("boom"))
	assert.Equal(t, CustomValidationErrors{{Field: "2", Message: "boom"}}, other)
}
