// Package pit is the domain of a personal investment tracker. It records
// assets and their ledger transactions (buys, sells, dividends and fees) and
// derives from them everything the tracker displays.
//
// The core is made of two pure functions:
//   - Normalize turns any transaction into its signed net cash flow.
//   - Aggregate folds the transactions of a single asset into a
//     HoldingSnapshot: quantity held, average cost basis, market value and
//     gain or loss.
//
// Around them, Ledger keeps transactions in chronological order, MarketData
// holds prices and exchange rates, and the reports (holdings, allocation,
// movers, dividend estimates, dashboard) combine both. EncodeArchive and
// DecodeArchive exchange a whole portfolio as a JSONL stream.
//
// Values use decimal arithmetic throughout: Quantity, Money and Percent wrap
// github.com/shopspring/decimal.
//
// Persistence, market quotes and user interfaces live in sibling packages
// (store, quotes, renderer, server and cmd).
package pit
