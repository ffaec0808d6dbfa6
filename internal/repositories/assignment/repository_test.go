package assignment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSerializationFailure(t *testing.T) {
	serialization := &pq.Error{Code: "40001", Message: "could not serialize access due to read/write dependencies among transactions"}

	assert.True(t, isSerializationFailure(serialization))

	// The commit path wraps the driver error; the code must survive wrapping.
	wrapped := fmt.Errorf("error while committing transaction: %w", serialization)
	assert.True(t, isSerializationFailure(wrapped))

	assert.False(t, isSerializationFailure(&pq.Error{Code: "23505", Message: "duplicate key value"}))
	assert.False(t, isSerializationFailure(errors.New("connection refused")))
	assert.False(t, isSerializationFailure(nil))
}
