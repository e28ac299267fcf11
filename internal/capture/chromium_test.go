package capture

import (
	"context"
	"testing"
	"time"

	"clubcal/internal/calendar"
)

func TestMonthURL(t *testing.T) {
	month := calendar.Date{Year: 2024, Month: time.February, Day: 1}
	tests := map[string]string{
		"127.0.0.1:8080": "http://127.0.0.1:8080/calendar?month=2024-02",
		":9090":          "http://127.0.0.1:9090/calendar?month=2024-02",
		"0.0.0.0:80":     "http://127.0.0.1:80/calendar?month=2024-02",
	}
	for listen, want := range tests {
		if got := MonthURL(listen, month); got != want {
			t.Fatalf("MonthURL(%q) = %q, want %q", listen, got, want)
		}
	}
}

func TestMonthPNG_ValidatesOptions(t *testing.T) {
	if err := MonthPNG(context.Background(), Options{OutputPath: "x.png"}); err == nil {
		t.Fatalf("expected error without URL")
	}
	if err := MonthPNG(context.Background(), Options{URL: "http://127.0.0.1/calendar"}); err == nil {
		t.Fatalf("expected error without output path")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{URL: "http://x", OutputPath: "y"}
	if err := o.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout {
		t.Fatalf("defaults not applied: %+v", o)
	}
}
