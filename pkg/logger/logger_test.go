package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l, err := New("todoapi", "debug")

	require.NoError(t, err)
	assert.Equal(t, "todoapi", l.ServiceName)
	assert.NotNil(t, l.Zap())

	l.InfoWithTrace(context.Background(), "hello")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("todoapi", "loud")

	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewNop(t *testing.T) {
	l := NewNop()

	assert.NotPanics(t, func() {
		l.ErrorWithTrace(context.Background(), "discarded")
	})
}
