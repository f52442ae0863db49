package types

type AccountChangedEvent struct {
	Current  *AccountSnapshot
	Previous *AccountSnapshot
}

// ChainIDChangedEvent carries nil for a chain id the bridge did not report.
type ChainIDChangedEvent struct {
	Current  *int64
	Previous *int64
}

type TransactionConfirmedEvent struct {
	Receipt *TransactionReceipt
}
