package sales

import (
	"errors"
	"testing"
)

func TestParsePeriods(t *testing.T) {
	t.Parallel()
	if d, err := ParseDay("2025-12-08"); err != nil || d != "2025-12-08" {
		t.Fatalf("day=%q err=%v", d, err)
	}
	if d, err := ParseDay(""); err != nil || d != "" {
		t.Fatalf("empty day=%q err=%v", d, err)
	}
	if _, err := ParseDay("08/12/2025"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("err=%v", err)
	}
	if m, err := ParseMonth("2025-12"); err != nil || m != "2025-12" {
		t.Fatalf("month=%q err=%v", m, err)
	}
	if _, err := ParseMonth("2025-13"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("err=%v", err)
	}
}
