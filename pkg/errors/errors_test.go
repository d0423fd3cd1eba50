package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	err := fmt.Errorf("enroll: %w", Clone(ErrCapacityExceeded, "course is full"))

	appErr := FromError(err)
	assert.Equal(t, ErrCapacityExceeded.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "course is full", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "course not found")
	assert.Equal(t, "course not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(Clone(ErrIneligible, ""), ErrIneligible))
	assert.False(t, HasCode(Clone(ErrConflict, ""), ErrIneligible))
	assert.False(t, HasCode(sql.ErrNoRows, ErrNotFound))
	assert.False(t, HasCode(nil, ErrNotFound))
}
