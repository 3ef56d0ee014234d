package ledger

import (
	"testing"
	"time"
)

func TestResetBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{
			name: "mid day",
			at:   time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC),
			want: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly midnight",
			at:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "non utc zone normalized",
			at:   time.Date(2026, 3, 10, 23, 0, 0, 0, time.FixedZone("plus2", 2*3600)),
			want: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ResetBoundary(tc.at); !got.Equal(tc.want) {
				t.Errorf("ResetBoundary(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestNeedsReset(t *testing.T) {
	t.Parallel()

	entry := Entry{LastResetAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	if entry.NeedsReset(time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)) {
		t.Error("reset triggered on the same UTC day")
	}
	if !entry.NeedsReset(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Error("reset not triggered at the next UTC midnight")
	}
	if !entry.NeedsReset(time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)) {
		t.Error("reset not triggered days later")
	}
}
