package mold

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmitSchemaInferred(_ *testing.T) {
	// Should not panic
	emitSchemaInferred(context.Background(), "TestType", 3)
}

func TestEmitTransformStart(_ *testing.T) {
	emitTransformStart(context.Background(), "TestType")
}

func TestEmitTransformComplete_Success(_ *testing.T) {
	emitTransformComplete(context.Background(), "TestType", 100*time.Millisecond, 5, nil)
}

func TestEmitTransformComplete_Error(_ *testing.T) {
	emitTransformComplete(context.Background(), "TestType", 100*time.Millisecond, 0, errors.New("test error"))
}

func TestEmitBatchComplete_Success(_ *testing.T) {
	emitBatchComplete(context.Background(), "TestType", 100*time.Millisecond, 10, nil)
}

func TestEmitBatchComplete_Error(_ *testing.T) {
	emitBatchComplete(context.Background(), "TestType", 100*time.Millisecond, 2, errors.New("test error"))
}

func TestEmitKeyDropped(_ *testing.T) {
	emitKeyDropped(context.Background(), "TestType", "unknown")
}

func TestEmitDepthExceeded(_ *testing.T) {
	emitDepthExceeded(context.Background(), "children", 32)
}

func TestEmitDecodeComplete_Success(_ *testing.T) {
	emitDecodeComplete(context.Background(), "application/json", "TestType", 1024, 100*time.Millisecond, nil)
}

func TestEmitDecodeComplete_Error(_ *testing.T) {
	emitDecodeComplete(context.Background(), "application/json", "TestType", 0, 100*time.Millisecond, errors.New("test error"))
}

func TestSignalVariables(t *testing.T) {
	// Verify signals are properly initialized
	signals := []struct {
		name   string
		signal interface{}
	}{
		{"SignalSchemaInferred", SignalSchemaInferred},
		{"SignalTransformStart", SignalTransformStart},
		{"SignalTransformComplete", SignalTransformComplete},
		{"SignalBatchComplete", SignalBatchComplete},
		{"SignalKeyDropped", SignalKeyDropped},
		{"SignalDepthExceeded", SignalDepthExceeded},
		{"SignalDecodeComplete", SignalDecodeComplete},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s is nil", s.name)
		}
	}
}

func TestKeyVariables(t *testing.T) {
	// Verify keys are properly initialized
	keys := []struct {
		name string
		key  interface{}
	}{
		{"KeyTypeName", KeyTypeName},
		{"KeyField", KeyField},
		{"KeySourceKey", KeySourceKey},
		{"KeyContentType", KeyContentType},
		{"KeyFieldCount", KeyFieldCount},
		{"KeyWrittenCount", KeyWrittenCount},
		{"KeyCount", KeyCount},
		{"KeyDepth", KeyDepth},
		{"KeySize", KeySize},
		{"KeyDuration", KeyDuration},
		{"KeyError", KeyError},
	}

	for _, k := range keys {
		if k.key == nil {
			t.Errorf("%s is nil", k.name)
		}
	}
}
