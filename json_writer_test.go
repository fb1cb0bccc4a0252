package pit

import (
	"encoding/json"
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("z", 1).Append("a", "x").Optional("notes", "").Optional("m", true)
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `{"z":1,"a":"x","m":true}`; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestTransaction_JSON(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want string
	}{
		{
			name: "buy",
			tx:   buy("2025-03-15", AAPL, "10", "170.50", "1.00"),
			want: `{"assetId":1,"type":"Buy","date":"2025-03-15","quantity":10,"price":170.5,"fees":1,"currency":"USD"}`,
		},
		{
			name: "fee",
			tx:   fee("2025-04-02", "5"),
			want: `{"assetId":null,"type":"Fee","date":"2025-04-02","quantity":null,"price":5,"fees":0,"currency":"USD","notes":"Account Maintenance Fee"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.tx)
			if err != nil {
				t.Fatalf("json.Marshal() unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("json.Marshal() = %s, want %s", got, tc.want)
			}
			var back Transaction
			if err := json.Unmarshal(got, &back); err != nil {
				t.Fatalf("json.Unmarshal() unexpected error: %v", err)
			}
			if !back.Equal(tc.tx) {
				t.Errorf("json.Unmarshal() = %+v, want %+v", back, tc.tx)
			}
		})
	}
}
