package logger

import (
	"context"
	"testing"

	"taskflow/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
)

func TestLoggerInterface_Contract(t *testing.T) {
	var _ Logger = NewLogger()
	var _ Logger = NewLoggerWithConfig("info", "json")
	var _ Logger = NewTestLogger()
}

func TestLogrusLogger_WithFieldsAndContext(t *testing.T) {
	logger := NewTestLogger()
	logger2 := logger.WithFields(map[string]interface{}{"foo": "bar"})
	assert.NotNil(t, logger2)

	ctx := context.Background()
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, "user1")
	ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "req1")
	logger3 := logger.WithContext(ctx)
	assert.NotNil(t, logger3)

	logger4 := logger.WithComponent("test_component")
	assert.NotNil(t, logger4)
}

func TestNewLoggerWithConfig_InvalidLevelFallsBack(t *testing.T) {
	logger := NewLoggerWithConfig("not-a-level", "text")
	assert.NotNil(t, logger)
	// Must still be usable
	logger.Info("hello")
}
