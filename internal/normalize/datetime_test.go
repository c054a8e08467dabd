package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plivedi/meddocs/internal/common"
)

// Wednesday, 24 September 2025, 10:00 IST.
func fixedNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return time.Date(2025, 9, 24, 10, 0, 0, 0, loc)
}

func TestResolveDatePhrase(t *testing.T) {
	now := fixedNow(t)

	tests := []struct {
		name    string
		phrase  string
		want    string
		wantErr bool
	}{
		{name: "today", phrase: "today", want: "2025-09-24"},
		{name: "tomorrow", phrase: "tomorrow", want: "2025-09-25"},
		{name: "next friday", phrase: "next Friday", want: "2025-09-26"},
		{name: "on monday", phrase: "on monday", want: "2025-09-29"},
		{name: "next wednesday is a full week out", phrase: "next wednesday", want: "2025-10-01"},
		{name: "absolute dd/mm/yyyy", phrase: "26/09/2025", want: "2025-09-26"},
		{name: "absolute with dashes and short year", phrase: "26-09-25", want: "2025-09-26"},
		{name: "impossible date", phrase: "31/02/2025", wantErr: true},
		{name: "gibberish", phrase: "whenever", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDatePhrase(tt.phrase, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrAmbiguousResolution))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestResolveTimePhrase(t *testing.T) {
	tests := []struct {
		name          string
		phrase        string
		hint          MeridiemHint
		wantHour      int
		wantMinute    int
		wantDefaulted bool
		wantErr       bool
	}{
		{name: "explicit pm", phrase: "3pm", wantHour: 15},
		{name: "explicit am with minutes", phrase: "9:15 am", wantHour: 9, wantMinute: 15},
		{name: "24 hour form", phrase: "14:30", wantHour: 14, wantMinute: 30},
		{name: "midnight 24h", phrase: "0:45", wantMinute: 45},
		{name: "12am is midnight", phrase: "12am", wantHour: 0},
		{name: "12pm is noon", phrase: "12pm", wantHour: 12},
		{name: "bare noon", phrase: "12:30", wantHour: 12, wantMinute: 30},
		{name: "bare 3 defaults to pm", phrase: "3", wantHour: 15, wantDefaulted: true},
		{name: "bare 7:30 defaults to pm", phrase: "7:30", wantHour: 19, wantMinute: 30, wantDefaulted: true},
		{name: "bare 9 is ambiguous", phrase: "9", wantErr: true},
		{name: "bare 9 with morning hint", phrase: "9", hint: HintAM, wantHour: 9},
		{name: "bare 9 with evening hint", phrase: "9", hint: HintPM, wantHour: 21},
		{name: "out of range", phrase: "25:00", wantErr: true},
		{name: "not a time", phrase: "soonish", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, defaulted, err := ResolveTimePhrase(tt.phrase, tt.hint)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
			assert.Equal(t, tt.wantDefaulted, defaulted)
		})
	}
}

func TestCurrencyHint(t *testing.T) {
	vocab := map[string]string{"inr": "INR", "rs": "INR", "$": "USD", "usd": "USD"}

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "code", text: "Total: INR 1200", want: "INR"},
		{name: "symbol", text: "Paid $40 at desk", want: "USD"},
		{name: "earliest wins", text: "USD 10 then INR 20", want: "USD"},
		{name: "word boundary respected", text: "after hours totals", want: ""},
		{name: "none", text: "no currency here", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrencyHint(tt.text, vocab))
		})
	}
}
