package kesterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeNil(t *testing.T) {
	assert.Nil(t, Summarize(nil))
}

func TestSummarizeFlatError(t *testing.T) {
	s := Summarize(errors.New("boom"))
	require.NotNil(t, s)
	assert.Equal(t, "boom", s.Message)
	assert.Nil(t, s.Cause)
}

func TestSummarizeWrappedChain(t *testing.T) {
	root := errors.New("field is immutable")
	wrapped := fmt.Errorf("apply failed: %w", root)

	s := Summarize(wrapped)
	require.NotNil(t, s)
	assert.Equal(t, "apply failed: field is immutable", s.Message)
	require.NotNil(t, s.Cause)
	assert.Equal(t, "field is immutable", s.Cause.Message)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(errors.New(`configmaps "missing" not found (NotFound)`)))
	assert.False(t, IsNotFound(errors.New("connection refused")))
	assert.False(t, IsNotFound(nil))

	wrapped := &NotFound{Err: errors.New("no such resource")}
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(fmt.Errorf("get failed: %w", wrapped)))
}

func TestTimeoutError(t *testing.T) {
	cause := errors.New("still pending")
	timeout := &Timeout{After: "5s", Cause: cause}

	assert.Equal(t, "Timed out after 5s: still pending", timeout.Error())
	assert.True(t, TimedOutPattern.MatchString(timeout.Error()))
	assert.ErrorIs(t, timeout, cause)

	bare := &Timeout{After: "5s"}
	assert.Equal(t, "Timed out after 5s", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
