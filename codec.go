package mold

import (
	"context"
	"reflect"
	"time"
)

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Decode unmarshals data into plain values with c and transforms the
// result into a T.
func Decode[T any](c Codec, data []byte) (T, error) {
	return decodeOn[T](std, c, data, nil)
}

// DecodeWith is Decode using m in place of T's attached or registered
// mapping.
func DecodeWith[T any](c Codec, data []byte, m Mapping) (T, error) {
	return decodeOn[T](std, c, data, &m)
}

// DecodeMany unmarshals a sequence with c and transforms every element
// into a T.
func DecodeMany[T any](c Codec, data []byte) ([]T, error) {
	ctx := context.Background()
	start := time.Now()
	name := reflect.TypeFor[T]().Name()

	var plain any
	if err := c.Unmarshal(data, &plain); err != nil {
		err = newCodecError(ErrUnmarshal, c.ContentType(), err)
		emitDecodeComplete(ctx, c.ContentType(), name, len(data), time.Since(start), err)
		return nil, err
	}

	out, err := transformManyOn[T](std, plain, nil)
	emitDecodeComplete(ctx, c.ContentType(), name, len(data), time.Since(start), err)
	return out, err
}

// Encode marshals v with c.
func Encode(c Codec, v any) ([]byte, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return nil, newCodecError(ErrMarshal, c.ContentType(), err)
	}
	return data, nil
}

func decodeOn[T any](e *Engine, c Codec, data []byte, m *Mapping) (T, error) {
	ctx := context.Background()
	start := time.Now()
	name := reflect.TypeFor[T]().Name()

	var plain any
	if err := c.Unmarshal(data, &plain); err != nil {
		var zero T
		err = newCodecError(ErrUnmarshal, c.ContentType(), err)
		emitDecodeComplete(ctx, c.ContentType(), name, len(data), time.Since(start), err)
		return zero, err
	}

	out, err := transformOn[T](e, plain, m)
	emitDecodeComplete(ctx, c.ContentType(), name, len(data), time.Since(start), err)
	return out, err
}
