// README: Common money value object used across modules. Amount is in cents.
package types

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func USD(cents int64) Money {
	return Money{Amount: cents, Currency: "USD"}
}
