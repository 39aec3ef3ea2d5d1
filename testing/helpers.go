// Package testing provides fixtures and helpers for mold tests.
package testing

import (
	"fmt"
	"time"

	"github.com/zoobzio/mold"
	"github.com/zoobzio/mold/transforms"
)

// Joined is the fixed signup date used by the fixtures. It has second
// precision so it survives every codec unchanged.
var Joined = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

// Address is a nested fixture type.
type Address struct {
	Street  string `json:"street" yaml:"street" msgpack:"street" bson:"street"`
	City    string `json:"city" yaml:"city" msgpack:"city" bson:"city"`
	Country string `json:"country" yaml:"country" msgpack:"country" bson:"country"`
}

// Order is a fixture type used as a slice element.
type Order struct {
	Ref   string  `json:"ref" yaml:"ref" msgpack:"ref" bson:"ref"`
	Total float64 `json:"total" yaml:"total" msgpack:"total" bson:"total"`
}

// Customer covers every coercion tag: numbers, strings, booleans, dates,
// nested objects, arrays and maps.
type Customer struct {
	ID      int64             `json:"id" yaml:"id" msgpack:"id" bson:"id"`
	Name    string            `json:"name" yaml:"name" msgpack:"name" bson:"name"`
	Email   string            `json:"email" yaml:"email" msgpack:"email" bson:"email"`
	Active  bool              `json:"active" yaml:"active" msgpack:"active" bson:"active"`
	Tier    string            `json:"tier" yaml:"tier" msgpack:"tier" bson:"tier"`
	Joined  time.Time         `json:"joined" yaml:"joined" msgpack:"joined" bson:"joined"`
	Address Address           `json:"address" yaml:"address" msgpack:"address" bson:"address"`
	Orders  []Order           `json:"orders" yaml:"orders" msgpack:"orders" bson:"orders"`
	Labels  map[string]string `json:"labels" yaml:"labels" msgpack:"labels" bson:"labels"`
}

// Default implements mold.Defaulter.
func (Customer) Default() Customer {
	return Customer{Active: true, Tier: "standard"}
}

// SampleCustomer returns a fully populated Customer.
func SampleCustomer() Customer {
	return Customer{
		ID:      42,
		Name:    "Ann Lee",
		Email:   "ann@example.com",
		Active:  false,
		Tier:    "gold",
		Joined:  Joined,
		Address: Address{Street: "1 Main St", City: "Oslo", Country: "NO"},
		Orders: []Order{
			{Ref: "A-1", Total: 12.5},
			{Ref: "A-2", Total: 7},
		},
		Labels: map[string]string{"source": "web"},
	}
}

// CustomerRow returns a snake_case row for customer id, shaped the way a
// database driver hands rows over: strings everywhere and dates as text.
func CustomerRow(id int) map[string]any {
	return map[string]any{
		"customer_id":   fmt.Sprint(id),
		"full_name":     fmt.Sprintf("Customer %d", id),
		"email_address": fmt.Sprintf("  Customer%d@Example.COM ", id),
		"is_active":     "false",
		"joined":        Joined.Format(time.RFC3339),
		"address":       map[string]any{"street": "1 Main St", "city": "Oslo"},
		"orders":        []any{map[string]any{"ref": "A-1", "total": "12.5"}},
		"internal_note": "not for export",
	}
}

// CustomerRows returns n rows built by CustomerRow, ids starting at 1.
func CustomerRows(n int) []any {
	rows := make([]any, n)
	for i := range rows {
		rows[i] = CustomerRow(i + 1)
	}
	return rows
}

// CustomerMapping maps CustomerRow onto Customer.
func CustomerMapping() mold.Mapping {
	return mold.Mapping{
		KeyTransform: transforms.SnakeToCamel,
		FieldMappings: map[string]mold.FieldMapping{
			"id":     {From: "customer_id"},
			"name":   {From: "full_name"},
			"email":  {From: "email_address", Transform: transforms.Chain(transforms.Trim(), transforms.Lower())},
			"active": {From: "is_active"},
		},
	}
}

// FixedClock returns a clock that always reports t, for mold.WithClock.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
