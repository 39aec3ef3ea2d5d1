package mold

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for engine events.
var (
	SignalSchemaInferred    = capitan.NewSignal("mold.schema.inferred", "Schema inferred for a target type")
	SignalTransformStart    = capitan.NewSignal("mold.transform.start", "Transform beginning")
	SignalTransformComplete = capitan.NewSignal("mold.transform.complete", "Transform finished")
	SignalBatchComplete     = capitan.NewSignal("mold.batch.complete", "Batch transform finished")
	SignalKeyDropped        = capitan.NewSignal("mold.key.dropped", "Source key matched no target field")
	SignalDepthExceeded     = capitan.NewSignal("mold.depth.exceeded", "Nesting deeper than the configured maximum")
	SignalDecodeComplete    = capitan.NewSignal("mold.decode.complete", "Codec decode and transform finished")
)

// Keys for typed event data.
var (
	KeyTypeName     = capitan.NewStringKey("type_name")
	KeyField        = capitan.NewStringKey("field")
	KeySourceKey    = capitan.NewStringKey("source_key")
	KeyContentType  = capitan.NewStringKey("content_type")
	KeyFieldCount   = capitan.NewIntKey("field_count")
	KeyWrittenCount = capitan.NewIntKey("written_count")
	KeyCount        = capitan.NewIntKey("count")
	KeyDepth        = capitan.NewIntKey("depth")
	KeySize         = capitan.NewIntKey("size")
	KeyDuration     = capitan.NewDurationKey("duration")
	KeyError        = capitan.NewErrorKey("error")
)

// emitSchemaInferred emits an event when a schema is built.
func emitSchemaInferred(ctx context.Context, typeName string, fields int) {
	capitan.Emit(ctx, SignalSchemaInferred,
		KeyTypeName.Field(typeName),
		KeyFieldCount.Field(fields),
	)
}

// emitTransformStart emits an event when a top-level transform begins.
func emitTransformStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalTransformStart,
		KeyTypeName.Field(typeName),
	)
}

// emitTransformComplete emits an event when a top-level transform finishes.
func emitTransformComplete(ctx context.Context, typeName string, duration time.Duration, written int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyWrittenCount.Field(written),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalTransformComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalTransformComplete, fields...)
	}
}

// emitBatchComplete emits an event when a batch finishes or aborts.
func emitBatchComplete(ctx context.Context, typeName string, duration time.Duration, count int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyCount.Field(count),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalBatchComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalBatchComplete, fields...)
	}
}

// emitKeyDropped emits an event when strict mode drops a source key.
func emitKeyDropped(ctx context.Context, typeName, key string) {
	capitan.Emit(ctx, SignalKeyDropped,
		KeyTypeName.Field(typeName),
		KeySourceKey.Field(key),
	)
}

// emitDepthExceeded emits an event when the depth guard substitutes a default.
func emitDepthExceeded(ctx context.Context, field string, depth int) {
	capitan.Emit(ctx, SignalDepthExceeded,
		KeyField.Field(field),
		KeyDepth.Field(depth),
	)
}

// emitDecodeComplete emits an event when a codec decode finishes.
func emitDecodeComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}
