package entity

// Wallet is a tracked wallet public identifier.
type Wallet struct {
	Address string `json:"address"`
}
