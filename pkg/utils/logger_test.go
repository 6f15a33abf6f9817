package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := NewLogger(debug)
		if err != nil {
			t.Fatalf("NewLogger(%v) error: %v", debug, err)
		}
		if !logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("NewLogger(%v) should log at info", debug)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != debug {
			t.Errorf("NewLogger(%v) debug enabled = %v", debug, got)
		}
		_ = logger.Sync()
	}
}
