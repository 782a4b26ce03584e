package money

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDisplayRoundTrip(t *testing.T) {
	inputs := []string{"0.00", "0.01", "10.00", "100.00", "60.50", "4294967295.99", "1234567.89"}
	for _, in := range inputs {
		m, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", in, err)
		}
		if got := m.String(); got != in {
			t.Fatalf("round trip %q -> %q", in, got)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	inputs := []string{
		"-5.00", "5", "5.0", "05.00", "5.000", "", ".00", "+5.00", " 5.00", "5.00 ",
		"5,00", "1e3.00", "00.00", "5.-1", "1.2.34", "five.00", "5.0a",
	}
	for _, in := range inputs {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("Parse(%q): expected ErrInvalidFormat, got %v", in, err)
		}
	}
}

func TestParseRejectsAboveCeiling(t *testing.T) {
	for _, in := range []string{"4294967296.00", "99999999999999999999.00"} {
		if _, err := Parse(in); !errors.Is(err, ErrOverflow) {
			t.Fatalf("Parse(%q): expected ErrOverflow, got %v", in, err)
		}
	}
}

func TestAddOverflowDoesNotWrap(t *testing.T) {
	max, err := FromMinorUnits(MaxMinorUnits)
	if err != nil {
		t.Fatalf("FromMinorUnits: %v", err)
	}
	one, _ := FromMinorUnits(1)

	if _, err := max.Add(one); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}

	sum, err := max.Add(Zero)
	if err != nil || sum.MinorUnits() != MaxMinorUnits {
		t.Fatalf("adding zero to max: sum=%v err=%v", sum, err)
	}
}

func TestAddWithinHonorsLowerLimit(t *testing.T) {
	a, _ := Parse("90.00")
	b, _ := Parse("10.01")
	if _, err := a.AddWithin(b, 10000); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow under 100.00 limit, got %v", err)
	}
	c, _ := Parse("10.00")
	sum, err := a.AddWithin(c, 10000)
	if err != nil || sum.String() != "100.00" {
		t.Fatalf("expected 100.00, got %v err=%v", sum, err)
	}
}

func TestSubUnderflow(t *testing.T) {
	a, _ := Parse("1.00")
	b, _ := Parse("1.01")
	if _, err := a.Sub(b); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
	diff, err := b.Sub(a)
	if err != nil || diff.String() != "0.01" {
		t.Fatalf("expected 0.01, got %v err=%v", diff, err)
	}
}

func TestFromMinorUnitsBounds(t *testing.T) {
	if _, err := FromMinorUnits(-1); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
	if _, err := FromMinorUnits(MaxMinorUnits + 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestJSONUsesDisplayString(t *testing.T) {
	var payload struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"12.34"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Amount.MinorUnits() != 1234 {
		t.Fatalf("expected 1234 minor units, got %d", payload.Amount.MinorUnits())
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"amount":"12.34"}` {
		t.Fatalf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"amount":"-1.00"}`), &payload); err == nil {
		t.Fatal("expected negative amount to be rejected")
	}
}

func TestCmp(t *testing.T) {
	a, _ := Parse("1.00")
	b, _ := Parse("2.00")
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Fatal("unexpected Cmp ordering")
	}
}
