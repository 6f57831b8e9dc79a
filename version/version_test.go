package version_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icontent-lms/go-icontent/version"
)

func TestConflictError(t *testing.T) {
	err := fmt.Errorf("store: append failed, %w", version.ConflictError{Expected: 1, Actual: 3})

	var conflictErr version.ConflictError
	assert.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, version.Version(1), conflictErr.Expected)
	assert.Equal(t, version.Version(3), conflictErr.Actual)
	assert.Contains(t, err.Error(), "expected stream version: 1, actual: 3")
}

func TestCheck(t *testing.T) {
	checks := []version.Check{version.Any, version.CheckExact(2)}

	_, isAny := checks[0].(version.CheckAny)
	assert.True(t, isAny)

	exact, isExact := checks[1].(version.CheckExact)
	assert.True(t, isExact)
	assert.Equal(t, version.CheckExact(2), exact)
}
