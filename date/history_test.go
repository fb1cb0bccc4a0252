package date

import "testing"

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// Values are appended in reverse order, the history must stay sorted.
	if h.Len() != 0 {
		t.Errorf("History.Len() = %v want 0", h.Len())
	}

	h.Append(d1, v1)
	if h.Len() != 1 {
		t.Errorf("Append(d1, v1).Len() = %v want 1", h.Len())
	}

	h.Append(d2, v2)
	if h.Len() != 2 {
		t.Errorf("Append(d2, v2).Len() = %v want 2", h.Len())
	}

	if h.days[0] != d2 || h.days[1] != d1 {
		t.Errorf("history days = %v want [%v %v]", h.days, d2, d1)
	}
	if h.values[0] != v2 || h.values[1] != v1 {
		t.Errorf("history values = %v want [%v %v]", h.values, v2, v1)
	}

	h.Append(d1, "replaced")
	if h.Len() != 2 {
		t.Errorf("Append(d1, replaced).Len() = %v want 2", h.Len())
	}
	if got, _ := h.Get(d1); got != "replaced" {
		t.Errorf("Get(d1) = %q want %q", got, "replaced")
	}
}

func TestValueAsOf(t *testing.T) {
	var h History[float64]
	h.Append(New(2025, 1, 10), 10).Append(New(2025, 1, 20), 20)

	for _, tc := range []struct {
		on     Date
		want   float64
		wantOK bool
	}{
		{New(2025, 1, 1), 0, false},
		{New(2025, 1, 10), 10, true},
		{New(2025, 1, 15), 10, true},
		{New(2025, 2, 1), 20, true},
	} {
		got, ok := h.ValueAsOf(tc.on)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ValueAsOf(%v) = %v, %v want %v, %v", tc.on, got, ok, tc.want, tc.wantOK)
		}
	}

	if day, v := h.Latest(); day != New(2025, 1, 20) || v != 20 {
		t.Errorf("Latest() = %v, %v want 2025-01-20, 20", day, v)
	}
}
