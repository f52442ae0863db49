package types

// AccountStatus is the wallet library's connection status label.
type AccountStatus string

const (
	AccountStatusConnected    AccountStatus = "connected"
	AccountStatusConnecting   AccountStatus = "connecting"
	AccountStatusDisconnected AccountStatus = "disconnected"
	AccountStatusReconnecting AccountStatus = "reconnecting"
)

// AccountSnapshot is the account state as reported by the wallet library.
// The four flags are taken as reported; they are not forced to be exclusive.
type AccountSnapshot struct {
	Address        *string       `json:"address"`
	Addresses      []string      `json:"addresses"`
	ChainID        *int64        `json:"chainId"`
	IsConnected    bool          `json:"isConnected"`
	IsConnecting   bool          `json:"isConnecting"`
	IsDisconnected bool          `json:"isDisconnected"`
	IsReconnecting bool          `json:"isReconnecting"`
	Status         AccountStatus `json:"status"`
}

// HasAddress reports whether the snapshot carries a usable address.
func (a *AccountSnapshot) HasAddress() bool {
	return a != nil && a.Address != nil && *a.Address != ""
}
