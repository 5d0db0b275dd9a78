package helpers

import (
	"testing"
)

func TestFormatAmountZEC(t *testing.T) {
	tests := []struct {
		zatoshis uint64
		want     string
	}{
		{100000000, "1"},
		{50000000, "0.5"},
		{12345678, "0.12345678"},
		{100000, "0.001"},
		{1, "0.00000001"},
		{0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatAmountZEC(tt.zatoshis)
			if got != tt.want {
				t.Errorf("FormatAmountZEC(%d) = %s, want %s", tt.zatoshis, got, tt.want)
			}
		})
	}
}

func TestParseAmountZEC(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"1", 100000000, false},
		{"0.5", 50000000, false},
		{"0.12345678", 12345678, false},
		{"0.001", 100000, false},
		{"0.00000001", 1, false},
		{"0", 0, false},
		{"", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
		// round-half-away-from-zero on the 9th fractional digit
		{"0.000000005", 1, false},
		{"0.000000004", 0, false},
		{"0.123456785", 12345679, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmountZEC(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAmountZEC(%s) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmountZECRoundtrip(t *testing.T) {
	amounts := []uint64{1, 100, 12345678, 100000000, 999999999}

	for _, amount := range amounts {
		formatted := FormatAmountZEC(amount)
		parsed, err := ParseAmountZEC(formatted)
		if err != nil {
			t.Errorf("ParseAmountZEC(%s) failed: %v", formatted, err)
			continue
		}
		if parsed != amount {
			t.Errorf("roundtrip failed: %d -> %s -> %d", amount, formatted, parsed)
		}
	}
}
</content>
</invoke>
