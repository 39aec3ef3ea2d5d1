package msgpack

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/mold"
)

type event struct {
	Kind    string  `mold:"kind"`
	Seq     int64   `mold:"seq"`
	Score   float32 `mold:"score"`
	Payload []byte  `mold:"payload"`
	Meta    meta    `mold:"meta"`
}

type meta struct {
	Source string `mold:"source"`
	Retry  bool   `mold:"retry"`
}

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/msgpack" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/msgpack")
	}
}

func TestDecode(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{
		"kind":    "click",
		"seq":     int64(9007199254740993),
		"score":   "0.5",
		"payload": "raw",
		"meta":    map[string]any{"source": "web", "retry": 0},
	})
	if err != nil {
		t.Fatalf("msgpack.Marshal() error: %v", err)
	}

	got, err := mold.Decode[event](New(), data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if got.Kind != "click" || got.Seq != 9007199254740993 || got.Score != 0.5 {
		t.Errorf("scalars = %+v", got)
	}
	if string(got.Payload) != "raw" {
		t.Errorf("Payload = %q, want %q", got.Payload, "raw")
	}
	if got.Meta != (meta{Source: "web"}) {
		t.Errorf("Meta = %+v", got.Meta)
	}
}

func TestEncode(t *testing.T) {
	c := New()
	data, err := mold.Encode(c, event{Kind: "view", Seq: 2})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(data) == 0 {
		t.Error("Encode() returned no data")
	}
}
