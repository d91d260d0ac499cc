package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistence_WrapsPlainErrors(t *testing.T) {
	cause := errors.New("connection refused")

	err := Persistence("list medicines", cause)

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, CodePersistence, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.ErrorIs(t, err, cause)
}

func TestPersistence_KeepsAppErrors(t *testing.T) {
	notFound := NewNotFound("bill", "42")

	err := Persistence("get bill", notFound)

	assert.True(t, IsNotFound(err))
	assert.Nil(t, Persistence("noop", nil))
}

func TestNewAuthAssertion_SurfacesDescription(t *testing.T) {
	err := NewAuthAssertion("Invalid JWT Signature.", errors.New("400"))

	assert.Equal(t, CodeAuthAssertion, err.Code)
	assert.Contains(t, err.Message, "Invalid JWT Signature.")
	assert.Equal(t, "Invalid JWT Signature.", err.Details["error_description"])
	assert.Equal(t, http.StatusBadGateway, GetHTTPStatus(err))
}

func TestNewDelivery_CarriesOwner(t *testing.T) {
	err := NewDelivery("owner-1", http.StatusNotFound, errors.New("unregistered"))

	assert.True(t, HasCode(err, CodeDelivery))
	assert.Equal(t, "owner-1", err.Details["owner_id"])
	assert.Equal(t, http.StatusNotFound, err.Details["provider_status"])
}
