package ferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndError(t *testing.T) {
	err := New(ErrCodeInvalidPath, "bad path %q", "../x")
	require.EqualError(t, err, `INVALID_PATH: bad path "../x"`)
	assert.Equal(t, ErrCodeInvalidPath, GetCode(err))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrCodeNetwork, cause, "fetch failed")
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ErrCodeNetwork))
	assert.False(t, Is(err, ErrCodeInternal))
}

func TestGetCodeNonFerrors(t *testing.T) {
	assert.Equal(t, Code(""), GetCode(errors.New("plain")))
}

func TestExplained(t *testing.T) {
	cause := New(ErrCodeDriver, "registry unreachable")
	wrapped := AsExplained(cause)
	assert.True(t, Explained(wrapped))
	assert.False(t, Explained(cause))
}
