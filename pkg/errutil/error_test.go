package errutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatus(t *testing.T) {
	cause := errors.New("boom")
	err := Conflict("withdrawal already processed", cause)

	var be BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, StatusConflict, be.Status())
	require.ErrorIs(t, err, cause)
	require.Equal(t, "[conflict] withdrawal already processed: boom", err.Error())
}

func TestStatusOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("voucher not found", nil))
	require.Equal(t, StatusNotFound, StatusOf(err))
	require.True(t, Is(err, StatusNotFound))
	require.False(t, Is(nil, StatusNotFound))
	require.Equal(t, StatusInternal, StatusOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[CoreStatus]int{
		StatusValidationFailed:    http.StatusUnprocessableEntity,
		StatusInsufficientBalance: http.StatusUnprocessableEntity,
		StatusNotFound:            http.StatusNotFound,
		StatusConflict:            http.StatusConflict,
		StatusBadRequest:          http.StatusBadRequest,
		StatusForbidden:           http.StatusForbidden,
		StatusUnknown:             http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, code.HTTPStatus(), string(code))
	}
}

func TestJSONEnvelope(t *testing.T) {
	err := BadRequest("voucher is not active", nil, WithDetails(Detail{Field: "status", Message: "expired"}))

	var be BaseError
	require.True(t, errors.As(err, &be))
	body := be.JSON()
	require.Equal(t, false, body["success"])
	require.Equal(t, "voucher is not active", body["message"])
}
