package pit

import (
	"github.com/etnz/pit/date"
	"github.com/shopspring/decimal"
)

// MarketData holds price histories of assets and exchange rates between
// currencies.
type MarketData struct {
	prices map[int64]*date.History[Money]
	rates  map[string]*date.History[decimal.Decimal]
}

// NewMarketData returns a new empty market data collection.
func NewMarketData() *MarketData {
	return &MarketData{
		prices: make(map[int64]*date.History[Money]),
		rates:  make(map[string]*date.History[decimal.Decimal]),
	}
}

// SetPrice records the price of an asset on a day, replacing any previous value.
func (m *MarketData) SetPrice(asset int64, on date.Date, price Money) {
	h, ok := m.prices[asset]
	if !ok {
		h = new(date.History[Money])
		m.prices[asset] = h
	}
	h.Append(on, price)
}

// Price returns the last known price of an asset on or before a day.
func (m *MarketData) Price(asset int64, on date.Date) (Money, bool) {
	h, ok := m.prices[asset]
	if !ok {
		return Money{}, false
	}
	return h.ValueAsOf(on)
}

func pair(base, quote string) string { return base + quote }

// SetRate records that on a day one unit of base is worth rate units of quote.
func (m *MarketData) SetRate(base, quote string, on date.Date, rate decimal.Decimal) {
	key := pair(base, quote)
	h, ok := m.rates[key]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.rates[key] = h
	}
	h.Append(on, rate)
}

// Rate returns the last known base/quote rate on or before a day. The
// inverse of the quote/base rate is used when only the reverse pair is known.
func (m *MarketData) Rate(base, quote string, on date.Date) (decimal.Decimal, bool) {
	if base == quote {
		return decimal.NewFromInt(1), true
	}
	if h, ok := m.rates[pair(base, quote)]; ok {
		if r, ok := h.ValueAsOf(on); ok {
			return r, true
		}
	}
	if h, ok := m.rates[pair(quote, base)]; ok {
		if r, ok := h.ValueAsOf(on); ok && !r.IsZero() {
			return decimal.NewFromInt(1).Div(r), true
		}
	}
	return decimal.Decimal{}, false
}

// Convert converts an amount into another currency using the rate on day.
// It returns a *MissingRateError when no rate is known.
func (m *MarketData) Convert(amount Money, to string, on date.Date) (Money, error) {
	if amount.cur == to || amount.cur == "" {
		return M(amount.value, to), nil
	}
	rate, ok := m.Rate(amount.cur, to, on)
	if !ok {
		return Money{}, &MissingRateError{From: amount.cur, To: to, Date: on}
	}
	return M(amount.value.Mul(rate), to), nil
}
