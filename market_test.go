package pit

import (
	"errors"
	"testing"
)

func TestMarketData_Price(t *testing.T) {
	m := NewMarketData()
	m.SetPrice(AAPL, day("2025-01-10"), USD(150))
	m.SetPrice(AAPL, day("2025-01-20"), USD(160))
	m.SetPrice(AAPL, day("2025-01-10"), USD(151)) // overwrite

	tests := []struct {
		on     string
		want   Money
		wantOK bool
	}{
		{"2025-01-09", Money{}, false},
		{"2025-01-10", USD(151), true},
		{"2025-01-15", USD(151), true},
		{"2025-02-01", USD(160), true},
	}
	for _, tc := range tests {
		got, ok := m.Price(AAPL, day(tc.on))
		if ok != tc.wantOK || (ok && !got.Equal(tc.want)) {
			t.Errorf("Price(%s) = %v, %v, want %v, %v", tc.on, got, ok, tc.want, tc.wantOK)
		}
	}
	if _, ok := m.Price(MSFT, day("2025-02-01")); ok {
		t.Error("Price() of an unknown asset found a price")
	}
}

func TestMarketData_Convert(t *testing.T) {
	m := NewMarketData()
	m.SetRate("EUR", "USD", day("2025-01-01"), dec("1.25"))

	tests := []struct {
		name   string
		amount Money
		to     string
		want   Money
	}{
		{"identity", USD(10), "USD", USD(10)},
		{"direct", EUR(10), "USD", USD(12.5)},
		{"inverse", USD(10), "EUR", EUR(8)},
		{"no currency", M(3, ""), "EUR", EUR(3)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.Convert(tc.amount, tc.to, day("2025-06-01"))
			if err != nil {
				t.Fatalf("Convert() unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("Convert() = %v, want %v", got, tc.want)
			}
		})
	}

	_, err := m.Convert(EUR(1), "USD", day("2024-12-31"))
	var rerr *MissingRateError
	if !errors.As(err, &rerr) {
		t.Errorf("Convert() before the first rate = %v, want a *MissingRateError", err)
	}
	if _, err := m.Convert(GBP(1), "USD", day("2025-06-01")); !errors.As(err, &rerr) {
		t.Errorf("Convert() of an unknown pair = %v, want a *MissingRateError", err)
	}
}
