package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// concatMarker is the evidence that a payload holds back-to-back objects.
const concatMarker = "}{"

// Decoded is the outcome of DecodeArguments.
type Decoded struct {
	Args Arguments

	// Repaired is true when the payload was split and merged.
	Repaired bool
	// Dropped counts fragments discarded during repair.
	Dropped int
}

// DecodeArguments decodes a raw argument payload.
//
// An empty payload decodes to an empty object. A payload that is not one
// JSON object but contains concatenated objects is repaired with
// RepairArguments. Anything else fails with ErrMalformedArguments wrapping
// the decoder's error.
func DecodeArguments(raw string) (Decoded, error) {
	if strings.TrimSpace(raw) == "" {
		return Decoded{Args: Arguments{}}, nil
	}

	var args Arguments
	err := json.Unmarshal([]byte(raw), &args)
	if err == nil {
		if args == nil {
			args = Arguments{}
		}
		return Decoded{Args: args}, nil
	}

	if !strings.Contains(raw, concatMarker) {
		return Decoded{}, fmt.Errorf("%w: %w", ErrMalformedArguments, err)
	}

	merged, dropped := RepairArguments(raw)
	return Decoded{Args: merged, Repaired: true, Dropped: dropped}, nil
}

// RepairArguments splits raw into top-level brace-delimited fragments,
// decodes each independently and merges the objects that parse. Later keys
// win. It returns the merged object and the number of fragments dropped.
func RepairArguments(raw string) (Arguments, int) {
	merged := Arguments{}
	dropped := 0
	for _, part := range SplitObjects(raw) {
		var obj Arguments
		if err := json.Unmarshal([]byte(part), &obj); err != nil || obj == nil {
			dropped++
			continue
		}
		for k, v := range obj {
			merged[k] = v
		}
	}
	return merged, dropped
}

// SplitObjects splits s at every point where brace depth returns to zero.
// Braces inside JSON string literals are not counted. Text between objects
// becomes its own fragment unless it is blank.
func SplitObjects(s string) []string {
	var sp splitter
	for _, r := range s {
		sp.feed(r)
	}
	sp.flush()
	return sp.parts
}

// splitter is the repair state machine: the current brace depth, whether
// the cursor is inside a string literal, and the fragment being
// accumulated. Strings are only tracked inside an object, so a stray quote
// in junk between objects cannot swallow the rest of the payload.
type splitter struct {
	depth    int
	inString bool
	escaped  bool
	buf      strings.Builder
	parts    []string
}

func (sp *splitter) feed(r rune) {
	if sp.inString {
		sp.buf.WriteRune(r)
		switch {
		case sp.escaped:
			sp.escaped = false
		case r == '\\':
			sp.escaped = true
		case r == '"':
			sp.inString = false
		}
		return
	}

	switch r {
	case '"':
		sp.buf.WriteRune(r)
		if sp.depth > 0 {
			sp.inString = true
		}
	case '{':
		if sp.depth == 0 {
			sp.flush()
		}
		sp.depth++
		sp.buf.WriteRune(r)
	case '}':
		sp.buf.WriteRune(r)
		if sp.depth == 0 {
			// Stray closer; it stays in the pending fragment, which will
			// fail to decode.
			return
		}
		sp.depth--
		if sp.depth == 0 {
			sp.flush()
		}
	default:
		sp.buf.WriteRune(r)
	}
}

func (sp *splitter) flush() {
	if strings.TrimSpace(sp.buf.String()) != "" {
		sp.parts = append(sp.parts, sp.buf.String())
	}
	sp.buf.Reset()
	sp.inString = false
	sp.escaped = false
}
