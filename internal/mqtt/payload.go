package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedPayload is returned for telemetry that carries no usable reading.
var ErrMalformedPayload = errors.New("malformed payload")

// envelopeFields are tried in order on JSON payloads
var envelopeFields = []string{"temperature", "value"}

// decimalLiteral matches the plain decimal numbers sensors send. Go-only forms
// accepted by strconv (hex floats, digit separators, Inf, NaN) do not match.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseTemperature extracts a reading from a telemetry payload. Depending on
// firmware version sensors send either a JSON object with a temperature (or
// value) field, or the bare number as text; both are accepted.
func ParseTemperature(payload []byte) (float64, error) {
	if v, ok := parseEnvelope(payload); ok {
		return v, nil
	}
	if v, ok := parseScalar(string(payload)); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrMalformedPayload, preview(payload))
}

func parseEnvelope(payload []byte) (float64, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return 0, false
	}

	for _, field := range envelopeFields {
		raw, ok := envelope[field]
		if !ok || string(raw) == "null" {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			if finite(n) {
				return n, true
			}
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, ok := parseScalar(s); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func parseScalar(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if !decimalLiteral.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func preview(payload []byte) string {
	const limit = 64
	if len(payload) > limit {
		return string(payload[:limit]) + "..."
	}
	return string(payload)
}
