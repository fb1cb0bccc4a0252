package pit

// Validate checks the shape of a transaction against the rules of its type.
//
// It returns an *UnknownTransactionTypeError when the type is not exactly one
// of Buy, Sell, Dividend or Fee, and a *ValidationError when a field is
// missing or out of range. Tags read from user input go through ParseTxType
// first.
func Validate(tx Transaction) error {
	switch tx.Type {
	case Buy, Sell, Dividend, Fee:
	default:
		return &UnknownTransactionTypeError{Type: string(tx.Type)}
	}
	if tx.Date.IsZero() {
		return invalid("date", "transaction date is required")
	}
	if !isCurrencyCode(tx.Currency) {
		return invalid("currency", "%q is not a currency code", tx.Currency)
	}
	if tx.Price.IsNegative() {
		return invalid("price", "%s transaction price must not be negative, got %s", tx.Type, tx.Price)
	}

	switch tx.Type {
	case Fee:
		if tx.Asset != 0 {
			return invalid("asset", "a fee is not attached to an asset, got asset %d", tx.Asset)
		}
		if !tx.Quantity.IsZero() {
			return invalid("quantity", "a fee has no quantity, got %s", tx.Quantity)
		}
		if !tx.Fees.IsZero() {
			return invalid("fees", "a fee has no fees of its own, got %s", tx.Fees)
		}
	default:
		if tx.Asset == 0 {
			return invalid("asset", "%s transaction requires an asset", tx.Type)
		}
		if !tx.Quantity.IsPositive() {
			return invalid("quantity", "%s transaction quantity must be positive, got %s", tx.Type, tx.Quantity)
		}
		if tx.Fees.IsNegative() {
			return invalid("fees", "%s transaction fees must not be negative, got %s", tx.Type, tx.Fees)
		}
	}
	return nil
}

// Normalize returns the signed net cash flow of a transaction, negative when
// cash goes out:
//
//	Buy:      -(quantity × price + fees)
//	Sell:       quantity × price − fees
//	Dividend:   quantity × price − fees
//	Fee:      -price
//
// The transaction is validated first. Normalize is pure.
func Normalize(tx Transaction) (Money, error) {
	if err := Validate(tx); err != nil {
		return Money{}, err
	}
	switch tx.Type {
	case Buy:
		return tx.Gross().Add(tx.FeesAmount()).Neg(), nil
	case Sell, Dividend:
		return tx.Gross().Sub(tx.FeesAmount()), nil
	case Fee:
		return M(tx.Price, tx.Currency).Neg(), nil
	}
	return Money{}, &UnknownTransactionTypeError{Type: string(tx.Type)}
}
