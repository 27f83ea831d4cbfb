package logger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTag(t *testing.T) {
	base := errors.New("connection refused")

	tagged := WithTag("connections", base)

	assert.Equal(t, "connection refused", tagged.Error())
	assert.ErrorIs(t, tagged, base)
	assert.Equal(t, "connections", ErrorTag(tagged))
}

func TestWithTag_Nil(t *testing.T) {
	assert.NoError(t, WithTag("run", nil))
}

func TestErrorTag_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("task 'purge': %w", WithTag("run", errors.New("boom")))

	assert.Equal(t, "run", ErrorTag(wrapped))
	assert.Empty(t, ErrorTag(errors.New("plain")))
	assert.Empty(t, ErrorTag(nil))
}
