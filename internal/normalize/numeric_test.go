package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixDigitRun(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "letter O inside digits", token: "12O0", want: "1200"},
		{name: "leading l before digits", token: "l00", want: "100"},
		{name: "capital I as one", token: "1I00", want: "1100"},
		{name: "S and B confusables", token: "5S8B", want: "5588"},
		{name: "no digits leaves word alone", token: "Ol", want: "Ol"},
		{name: "plain number untouched", token: "1200", want: "1200"},
		{name: "cascading run", token: "1OOO", want: "1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FixDigitRun(tt.token))
		})
	}
}

func TestParseLooseFloat(t *testing.T) {
	tests := []struct {
		token string
		want  float64
		ok    bool
	}{
		{token: "1200", want: 1200, ok: true},
		{token: "1,200.50", want: 1200.50, ok: true},
		{token: "12O0", want: 1200, ok: true},
		{token: "11,2OO", want: 11200, ok: true},
		{token: "abc", ok: false},
		{token: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParseLooseFloat(tt.token)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIsPercentToken(t *testing.T) {
	assert.True(t, IsPercentToken("10%"))
	assert.True(t, IsPercentToken(" 12.5% "))
	assert.False(t, IsPercentToken("10"))
}
