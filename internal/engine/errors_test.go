package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesCode(t *testing.T) {
	err := newError(CodeNotClickable, "m-1", "bob", "module is %s", "needs_setup")

	assert.ErrorIs(t, err, ErrNotClickable)
	assert.NotErrorIs(t, err, ErrSelfInteraction)

	wrapped := fmt.Errorf("click: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotClickable)
	assert.True(t, IsNotClickable(wrapped))
	assert.Equal(t, CodeNotClickable, CodeOf(wrapped))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{newError(CodeOutOfBounds, "", "", "off grid"), "OUT_OF_BOUNDS: off grid"},
		{newError(CodeModuleNotFound, "m-1", "", "gone"), "MODULE_NOT_FOUND: gone (module=m-1)"},
		{newError(CodeUnknownUser, "", "bob", "who"), "UNKNOWN_USER: who (user=bob)"},
		{newError(CodeSelfInteraction, "m-1", "bob", "no"), "SELF_INTERACTION: no (module=m-1, user=bob)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestCodeOf_NonEngineError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.False(t, IsNotFound(errors.New("plain")))
}
