package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := errors.New("boom")
	inner := Wrap(base, CodeConflict, "version changed")
	outer := Wrap(inner, CodeInternal, "update failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.ErrorIs(t, outer, base)
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestCodeOfAndMessage(t *testing.T) {
	err := fmt.Errorf("context: %w", New(CodeNotFound, "claim not found"))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, "claim not found", MessageOf(err))

	plain := errors.New("plain")
	assert.Equal(t, CodeInternal, CodeOf(plain))
	assert.Equal(t, "internal error", MessageOf(plain))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}
