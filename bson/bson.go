// Package bson provides a BSON codec implementation.
package bson

import (
	"github.com/zoobzio/mold"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// bsonCodec implements mold.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec. Documents decoded into an empty interface
// become map[string]any, nested documents included, so they can be
// transformed directly.
func New() mold.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	target, ok := v.(*any)
	if !ok {
		return bson.Unmarshal(data, v)
	}

	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return err
	}
	dec.DefaultDocumentM()

	var doc bson.M
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	*target = map[string]any(doc)
	return nil
}
