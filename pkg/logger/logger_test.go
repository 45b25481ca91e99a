package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		l, err := New(env)
		if err != nil {
			t.Fatalf("%s: %v", env, err)
		}
		if l == nil {
			t.Fatalf("%s: nil logger", env)
		}
	}

	prod, _ := New("production")
	if prod.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not enable debug")
	}
	dev, _ := New("development")
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger should enable debug")
	}
}
