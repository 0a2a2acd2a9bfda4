package usage

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{in: "", want: PeriodDay},
		{in: "day", want: PeriodDay},
		{in: "month", want: PeriodMonth},
		{in: "total", wantErr: true},
		{in: "DAY", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPeriod_Bounds(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 30, 0, 0, time.FixedZone("X", -3600))

	start, end := PeriodDay.Bounds(at)
	if !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day bounds = %v..%v", start, end)
	}

	start, end = PeriodMonth.Bounds(at)
	if !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month bounds = %v..%v", start, end)
	}
}

func TestReport_Remaining(t *testing.T) {
	tests := []struct {
		name          string
		limit, used   int64
		wantRemaining int64
		wantExhausted bool
	}{
		{name: "unlimited", limit: 0, used: 500, wantRemaining: -1},
		{name: "under", limit: 1000, used: 300, wantRemaining: 700},
		{name: "at limit", limit: 1000, used: 1000, wantRemaining: 0, wantExhausted: true},
		{name: "over", limit: 1000, used: 1200, wantRemaining: 0, wantExhausted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport(PeriodDay, time.Time{}, time.Time{}, tt.limit, tt.used)
			if r.Remaining() != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", r.Remaining(), tt.wantRemaining)
			}
			if r.Exhausted() != tt.wantExhausted {
				t.Errorf("exhausted = %v, want %v", r.Exhausted(), tt.wantExhausted)
			}
		})
	}
}
