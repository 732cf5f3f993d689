package dispatch

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     Arguments
		repaired bool
		dropped  int
	}{
		{"single object", `{"a":1}`, Arguments{"a": float64(1)}, false, 0},
		{"empty payload", ``, Arguments{}, false, 0},
		{"whitespace payload", "  \n", Arguments{}, false, 0},
		{"json null", `null`, Arguments{}, false, 0},
		{"two objects", `{"a":1}{"b":2}`, Arguments{"a": float64(1), "b": float64(2)}, true, 0},
		{"invalid middle fragment", `{"a":1}{invalid}{"b":2}`, Arguments{"a": float64(1), "b": float64(2)}, true, 1},
		{"later key wins", `{"a":1}{"a":2}`, Arguments{"a": float64(2)}, true, 0},
		{"nested objects", `{"loc":{"city":"x"}}{"force_refresh":true}`,
			Arguments{"loc": map[string]any{"city": "x"}, "force_refresh": true}, true, 0},
		{"unbalanced tail dropped", `{"a":1}{"b":`, Arguments{"a": float64(1)}, true, 1},
		{"braces inside a string", `{"a":"}{"}{"b":2}`, Arguments{"a": "}{", "b": float64(2)}, true, 0},
		{"escaped quote inside a string", `{"a":"x\"}{"}{"b":1}`, Arguments{"a": `x"}{`, "b": float64(1)}, true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeArguments(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got.Args, tc.want) {
				t.Errorf("args = %#v, want %#v", got.Args, tc.want)
			}
			if got.Repaired != tc.repaired {
				t.Errorf("repaired = %v, want %v", got.Repaired, tc.repaired)
			}
			if got.Dropped != tc.dropped {
				t.Errorf("dropped = %d, want %d", got.Dropped, tc.dropped)
			}
		})
	}
}

func TestDecodeArguments_Unrecoverable(t *testing.T) {
	for _, raw := range []string{`not json at all`, `{"a":1} {"b":2}`, `[1,2]`, `{"a":`} {
		t.Run(raw, func(t *testing.T) {
			_, err := DecodeArguments(raw)
			if !errors.Is(err, ErrMalformedArguments) {
				t.Fatalf("err = %v, want ErrMalformedArguments", err)
			}
			// The decoder's own error stays reachable.
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				t.Errorf("original decode error not wrapped: %v", err)
			}
		})
	}
}

func TestSplitObjects(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`{"a":1}{"b":2}`, []string{`{"a":1}`, `{"b":2}`}},
		{`{"a":{"b":{}}}{"c":3}`, []string{`{"a":{"b":{}}}`, `{"c":3}`}},
		{`{"a":1} junk {"b":2}`, []string{`{"a":1}`, ` junk `, `{"b":2}`}},
		{`{"a":1}}{"b":2}`, []string{`{"a":1}`, `}`, `{"b":2}`}},
		{`{"a":"}{"}{"b":2}`, []string{`{"a":"}{"}`, `{"b":2}`}},
		{`{"a":"\\"}{"b":2}`, []string{`{"a":"\\"}`, `{"b":2}`}},
		{`{"a":1} "junk {"b":2}`, []string{`{"a":1}`, ` "junk `, `{"b":2}`}},
		{``, nil},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := SplitObjects(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitObjects(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestArguments_Accessors(t *testing.T) {
	args := Arguments{
		"city":   " Paris ",
		"days":   float64(3),
		"force":  "true",
		"flag":   true,
		"blank":  "   ",
		"strnum": "7",
		"null":   nil,
	}

	if s, ok := args.Text("days"); !ok || s != "3" {
		t.Errorf("Text(days) = (%q, %v)", s, ok)
	}
	if _, ok := args.Text("null"); ok {
		t.Error("Text(null) should report missing")
	}
	if got := args.TextOr("city", "x"); got != "Paris" {
		t.Errorf("TextOr(city) = %q", got)
	}
	if got := args.TextOr("blank", "dflt"); got != "dflt" {
		t.Errorf("TextOr(blank) = %q", got)
	}
	if !args.Bool("force") || !args.Bool("flag") || args.Bool("missing") {
		t.Error("Bool accessor mismatch")
	}
	if args.Int("days", 0) != 3 || args.Int("strnum", 0) != 7 || args.Int("city", 9) != 9 {
		t.Error("Int accessor mismatch")
	}
}
