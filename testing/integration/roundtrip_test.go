package integration

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/mold"
	"github.com/zoobzio/mold/bson"
	"github.com/zoobzio/mold/json"
	"github.com/zoobzio/mold/msgpack"
	moldtest "github.com/zoobzio/mold/testing"
	"github.com/zoobzio/mold/yaml"
)

func TestRoundTrip_JSON(t *testing.T) {
	testRoundTrip(t, json.New())
}

func TestRoundTrip_YAML(t *testing.T) {
	testRoundTrip(t, yaml.New())
}

func TestRoundTrip_MessagePack(t *testing.T) {
	testRoundTrip(t, msgpack.New())
}

func TestRoundTrip_BSON(t *testing.T) {
	testRoundTrip(t, bson.New())
}

func TestPartial_JSON(t *testing.T) {
	testPartial(t, json.New())
}

func TestPartial_YAML(t *testing.T) {
	testPartial(t, yaml.New())
}

func TestPartial_MessagePack(t *testing.T) {
	testPartial(t, msgpack.New())
}

func TestPartial_BSON(t *testing.T) {
	testPartial(t, bson.New())
}

// testRoundTrip encodes a typed instance, decodes the bytes back through
// plain values and expects the same instance.
func testRoundTrip(t *testing.T, c mold.Codec) {
	t.Helper()

	original := moldtest.SampleCustomer()
	data, err := mold.Encode(c, original)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	restored, err := mold.Decode[moldtest.Customer](c, data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if diff := cmp.Diff(original, restored); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// testPartial encodes a sparse document and expects defaults for
// everything it leaves out.
func testPartial(t *testing.T, c mold.Codec) {
	t.Helper()

	data, err := mold.Encode(c, map[string]any{
		"id":      "8",
		"address": map[string]any{"city": "Rome"},
		"unknown": "dropped",
	})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	got, err := mold.Decode[moldtest.Customer](c, data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	want := moldtest.Customer{}.Default()
	want.ID = 8
	want.Address.City = "Rome"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partial mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMany_JSON(t *testing.T) {
	c := json.New()
	data, err := mold.Encode(c, []moldtest.Customer{moldtest.SampleCustomer(), {ID: 2}})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	got, err := mold.DecodeMany[moldtest.Customer](c, data)
	if err != nil {
		t.Fatalf("DecodeMany() error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Ann Lee" || got[1].ID != 2 {
		t.Errorf("DecodeMany() = %+v", got)
	}
}
