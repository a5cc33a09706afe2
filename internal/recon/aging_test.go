package recon

import (
	"testing"
	"time"
)

func TestBucket_Boundaries(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{-1, BucketFuture},
		{0, Bucket0To30},
		{30, Bucket0To30},
		{31, Bucket30To60},
		{60, Bucket30To60},
		{61, Bucket60To90},
		{90, Bucket60To90},
		{91, Bucket90Plus},
		{365, Bucket90Plus},
	}

	for _, tt := range tests {
		if got := Bucket(tt.age); got != tt.want {
			t.Errorf("Bucket(%d) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestAge(t *testing.T) {
	processing := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		entry string
		want  int
	}{
		{"31-03-2025", 0},
		{"30-03-2025", 1},
		{"01-03-2025", 30},
		{"01-04-2025", -1},
	}

	for _, tt := range tests {
		entry, ok := ParseDayFirst(tt.entry)
		if !ok {
			t.Fatalf("ParseDayFirst(%q) failed", tt.entry)
		}
		if got := Age(processing, entry); got != tt.want {
			t.Errorf("Age(processing, %s) = %d, want %d", tt.entry, got, tt.want)
		}
	}
}

func TestApplyAging(t *testing.T) {
	processing := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	old := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	exceptions := []Exception{
		{Particulars: "recent", Date: &processing},
		{Particulars: "stale", Date: &old},
		{Particulars: "no date", RawDate: "31-13-2025"},
	}

	aged := ApplyAging(exceptions, processing)

	if aged[0].AgingBucket != Bucket0To30 {
		t.Errorf("recent bucket = %q", aged[0].AgingBucket)
	}
	if aged[1].AgingBucket != Bucket90Plus {
		t.Errorf("stale bucket = %q", aged[1].AgingBucket)
	}
	if aged[2].AgingBucket != BucketUnparseable {
		t.Errorf("unparseable bucket = %q", aged[2].AgingBucket)
	}
	for _, ex := range aged {
		if ex.AdditionalRemarks != PendingFromOperation {
			t.Errorf("%s: additional remarks = %q", ex.Particulars, ex.AdditionalRemarks)
		}
	}
}

func TestParseDayFirst(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"31-03-2025", true, "2025-03-31"},
		{"31/03/2025", true, "2025-03-31"},
		{"1-4-2025", true, "2025-04-01"},
		{"2025-03-31", true, "2025-03-31"},
		{"31-03-2025 14:22:01", true, "2025-03-31"},
		{"not a date", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		got, ok := ParseDayFirst(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDayFirst(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDayFirst(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}
