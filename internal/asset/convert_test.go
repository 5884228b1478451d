package asset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int64
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "int", input: int(100), expected: 100},
		{name: "int32", input: int32(200), expected: 200},
		{name: "int16", input: int16(300), expected: 300},
		{name: "int8", input: int8(127), expected: 127},
		{name: "uint", input: uint(500), expected: 500},
		{name: "uint64", input: uint64(600), expected: 600},
		{name: "uint8", input: uint8(255), expected: 255},
		{name: "float64 truncates", input: float64(3.9), expected: 3},
		{name: "float32", input: float32(7), expected: 7},
		{name: "json number int", input: json.Number("12"), expected: 12},
		{name: "json number float", input: json.Number("12.5"), expected: 12},
		{name: "string", input: "12", expected: 0},
		{name: "nil", input: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToInt64(tt.input))
		})
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		ok       bool
	}{
		{name: "float64", input: 2.5, expected: 2.5, ok: true},
		{name: "int", input: 5, expected: 5, ok: true},
		{name: "uint16", input: uint16(9), expected: 9, ok: true},
		{name: "json number", input: json.Number("1e3"), expected: 1000, ok: true},
		{name: "bad json number", input: json.Number("x"), ok: false},
		{name: "bool", input: true, ok: false},
		{name: "string", input: "1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
			assert.Equal(t, tt.ok, IsNumeric(tt.input))
		})
	}
}
