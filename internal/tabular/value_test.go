package tabular

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{name: "integer-valued number", v: Number(30), want: "30"},
		{name: "fractional number", v: Number(41.5), want: "41.5"},
		{name: "negative number", v: Number(-0.25), want: "-0.25"},
		{name: "large number", v: Number(1e21), want: "1e+21"},
		{name: "text", v: Text("alice"), want: "alice"},
		{name: "date", v: Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), want: "2024-01-15"},
		{name: "missing", v: Missing(), want: ""},
		{name: "zero value is missing", v: Value{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{name: "number", v: Number(41.5), want: "41.5"},
		{name: "integer-valued number", v: Number(7), want: "7"},
		{name: "nan becomes null", v: Number(math.NaN()), want: "null"},
		{name: "infinity becomes null", v: Number(math.Inf(1)), want: "null"},
		{name: "text", v: Text(`said "hi"`), want: `"said \"hi\""`},
		{name: "date", v: Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), want: `"2024-01-15"`},
		{name: "missing", v: Missing(), want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValueIsMissing(t *testing.T) {
	if !Missing().IsMissing() {
		t.Error("Missing().IsMissing() = false")
	}
	if Number(0).IsMissing() {
		t.Error("Number(0) must not be missing")
	}
	if Text("").IsMissing() {
		t.Error("Text(\"\") must not be missing")
	}
}
