package types

// TransactionInput is the transaction request a host submits. Gas is accepted
// on the wire but the bridge always re-estimates it.
type TransactionInput struct {
	From  string  `json:"from,omitempty"`
	To    string  `json:"to" validate:"required"`
	Value *BigInt `json:"value,omitempty"`
	Data  string  `json:"data,omitempty"`
	Gas   *BigInt `json:"gas,omitempty"`
}

// ReceiptStatus is 1 for success and 0 for anything else.
type ReceiptStatus int

const (
	ReceiptStatusFailed  ReceiptStatus = 0
	ReceiptStatusSuccess ReceiptStatus = 1
)

// NormalizeReceiptStatus maps the library's status label to 1 or 0.
// Unknown labels are treated as failure.
func NormalizeReceiptStatus(status string) ReceiptStatus {
	if status == "success" {
		return ReceiptStatusSuccess
	}
	return ReceiptStatusFailed
}

// ReceiptLog is a single log entry of a receipt.
type ReceiptLog struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     BigInt   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
	LogIndex        uint     `json:"logIndex"`
	Removed         bool     `json:"removed"`
}

// TransactionReceipt is the wire form of a confirmed transaction.
type TransactionReceipt struct {
	TransactionHash   string        `json:"transactionHash"`
	TransactionIndex  uint          `json:"transactionIndex"`
	BlockHash         string        `json:"blockHash"`
	BlockNumber       BigInt        `json:"blockNumber"`
	From              string        `json:"from"`
	To                *string       `json:"to"`
	ContractAddress   *string       `json:"contractAddress"`
	CumulativeGasUsed BigInt        `json:"cumulativeGasUsed"`
	GasUsed           BigInt        `json:"gasUsed"`
	EffectiveGasPrice BigInt        `json:"effectiveGasPrice"`
	Type              string        `json:"type"`
	Status            ReceiptStatus `json:"status"`
	LogsBloom         string        `json:"logsBloom"`
	Logs              []ReceiptLog  `json:"logs"`
}
