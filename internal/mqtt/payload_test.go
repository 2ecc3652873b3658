package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemperature(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
	}{
		{name: "json envelope", payload: `{"temperature": 27.4}`, want: 27.4},
		{name: "bare literal", payload: `27.4`, want: 27.4},
		{name: "quoted literal", payload: `"27.4"`, want: 27.4},
		{name: "surrounding whitespace", payload: " 27.4\n", want: 27.4},
		{name: "value field", payload: `{"value": 25}`, want: 25},
		{name: "temperature wins over value", payload: `{"value": 1, "temperature": 2}`, want: 2},
		{name: "string field", payload: `{"temperature": "26.1"}`, want: 26.1},
		{name: "unusable temperature falls back to value", payload: `{"temperature": null, "value": 3}`, want: 3},
		{name: "negative", payload: `-1.5`, want: -1.5},
		{name: "exponent", payload: `2.74e1`, want: 27.4},
		{name: "leading dot", payload: `.5`, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTemperature([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTemperatureMalformed(t *testing.T) {
	for _, payload := range []string{
		`not-a-number`,
		`"not-a-number"`,
		`{}`,
		`{"humidity": 60}`,
		`{"temperature": "warm"}`,
		`[27.4]`,
		`NaN`,
		`+Inf`,
		``,
		`0x1p4`,
		`"0x1p4"`,
		`1_0`,
		`{"temperature": "1_0"}`,
		`{"value": "0x10"}`,
		`Infinity`,
	} {
		t.Run(payload, func(t *testing.T) {
			_, err := ParseTemperature([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestParseTemperatureEnvelopeAndLiteralAgree(t *testing.T) {
	a, err := ParseTemperature([]byte(`{"temperature": 27.4}`))
	require.NoError(t, err)
	b, err := ParseTemperature([]byte(`27.4`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
