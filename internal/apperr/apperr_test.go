package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayoisaiah/solvelog/internal/apperr"
)

var errTemplate = &apperr.Error{
	Message: "prune window must be between %d and %d days",
}

func TestErrorFmt(t *testing.T) {
	err := errTemplate.Fmt(1, 3650)

	assert.Equal(t, "prune window must be between 1 and 3650 days", err.Error())
	assert.ErrorIs(t, err, errTemplate)
	assert.Equal(t, "prune window must be between %d and %d days", errTemplate.Message)
	assert.Nil(t, errTemplate.Context)
}

func TestErrorWrap(t *testing.T) {
	cause := errors.New("disk full")

	err := fmt.Errorf("saving: %w", errTemplate.Fmt(1, 2).Wrap(cause))

	assert.ErrorIs(t, err, errTemplate)
	assert.ErrorIs(t, err, cause)
	assert.Equal(
		t,
		"saving: prune window must be between 1 and 2 days: disk full",
		err.Error(),
	)
}
