package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", InvalidErr("bad", nil), http.StatusBadRequest},
		{"unauthorized", UnauthorizedErr("no"), http.StatusUnauthorized},
		{"payment", PaymentErr("declined", errors.New("card")), http.StatusPaymentRequired},
		{"not found", NotFoundErr("missing"), http.StatusNotFound},
		{"conflict", ConflictErr("busy"), http.StatusConflict},
		{"wrapped app error", fmt.Errorf("outer: %w", ConflictErr("busy")), http.StatusConflict},
		{"internal", Wrap(errors.New("db down")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "declined", PublicMessage(PaymentErr("declined", nil)))
	assert.Equal(t, defaultPublicMsg, PublicMessage(Wrap(errors.New("secret dsn"))))
	assert.Equal(t, defaultPublicMsg, PublicMessage(errors.New("raw")))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := PaymentErr("declined", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, PaymentFailed))
	assert.False(t, IsKind(err, Invalid))
}
