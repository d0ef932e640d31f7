package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad plate %s", "X")))
	assert.Equal(t, KindConflict, KindOf(Conflict("spot taken")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("no such ticket")))
	assert.Equal(t, KindConsistency, KindOf(Consistency("impossible state")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("vehicle ABC1234 not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("fsm: event close inappropriate")
	err := Wrap(KindConflict, cause, "ticket already closed")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ticket already closed")
}
