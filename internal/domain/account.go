package domain

import "github.com/shopspring/decimal"

// Balance per-currency funds on one account.
type Balance struct {
	// Currency symbol, e.g. BTC.
	Currency string
	// Available amount usable for trading.
	Available decimal.Decimal
	// Frozen amount locked by open orders.
	Frozen decimal.Decimal
}

// Equal reports full value equality.
func (b Balance) Equal(other Balance) bool {
	return b.Currency == other.Currency &&
		b.Available.Equal(other.Available) &&
		b.Frozen.Equal(other.Frozen)
}

// Account exchange account with its balances, keyed by currency.
// An account snapshot is replaced wholesale when any balance changes.
type Account struct {
	// ID identifier assigned by the exchange.
	ID string
	// Name human readable account name, may be empty.
	Name string
	// Balances currency -> balance.
	Balances map[string]Balance
}

// UID returns the stable identity used by the flux engine.
func (a Account) UID() string {
	return a.ID
}

// Equal reports full value equality, including every balance.
func (a Account) Equal(other Account) bool {
	if a.ID != other.ID || a.Name != other.Name || len(a.Balances) != len(other.Balances) {
		return false
	}
	for currency, balance := range a.Balances {
		otherBalance, ok := other.Balances[currency]
		if !ok || !balance.Equal(otherBalance) {
			return false
		}
	}
	return true
}

// Balance returns the balance for the given currency, zero-valued when absent.
func (a Account) Balance(currency string) Balance {
	if b, ok := a.Balances[currency]; ok {
		return b
	}
	return Balance{Currency: currency}
}
