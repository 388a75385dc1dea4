package bridge

import (
	"github.com/shopspring/decimal"
)

// DepositRequest asks for deposit addresses for a wallet.
type DepositRequest struct {
	Address string `json:"address"` // Destination wallet (EVM)
}

// DepositResponse holds deposit addresses per network.
type DepositResponse struct {
	Address DepositAddresses `json:"address"`
	Note    *string          `json:"note,omitempty"`
}

// DepositAddresses are the per-network deposit addresses.
type DepositAddresses struct {
	EVM string `json:"evm"` // Ethereum, Polygon, Arbitrum, Base, ...
	SVM string `json:"svm"` // Solana
	BTC string `json:"btc"`
}

// SupportedAssetsResponse lists assets accepted for deposit.
type SupportedAssetsResponse struct {
	SupportedAssets []SupportedAsset `json:"supportedAssets"`
	Note            *string          `json:"note,omitempty"`
}

// SupportedAsset is one token on one chain.
type SupportedAsset struct {
	ChainID        uint64          `json:"chainId,string"`
	ChainName      string          `json:"chainName"`
	Token          Token           `json:"token"`
	MinCheckoutUSD decimal.Decimal `json:"minCheckoutUsd"`
}

// Token describes a token contract.
type Token struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// StatusRequest asks for transactions of a deposit address.
type StatusRequest struct {
	Address string `json:"address"`
}

// StatusResponse lists deposit transactions.
type StatusResponse struct {
	Transactions []DepositTransaction `json:"transactions"`
}

// DepositTransactionStatus is the processing stage of a deposit.
type DepositTransactionStatus string

const (
	StatusDepositDetected   DepositTransactionStatus = "DEPOSIT_DETECTED"
	StatusProcessing        DepositTransactionStatus = "PROCESSING"
	StatusOriginTxConfirmed DepositTransactionStatus = "ORIGIN_TX_CONFIRMED"
	StatusSubmitted         DepositTransactionStatus = "SUBMITTED"
	StatusCompleted         DepositTransactionStatus = "COMPLETED"
	StatusFailed            DepositTransactionStatus = "FAILED"
)

// IsFinal reports whether the deposit will not change status again.
func (s DepositTransactionStatus) IsFinal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DepositTransaction is one deposit seen by the bridge.
type DepositTransaction struct {
	FromChainID        uint64                   `json:"fromChainId,string"`
	FromTokenAddress   string                   `json:"fromTokenAddress"`
	FromAmountBaseUnit decimal.Decimal          `json:"fromAmountBaseUnit"`
	ToChainID          uint64                   `json:"toChainId,string"`
	ToTokenAddress     string                   `json:"toTokenAddress"`
	Status             DepositTransactionStatus `json:"status"`
	TxHash             *string                  `json:"txHash,omitempty"`
	CreatedTimeMs      *uint64                  `json:"createdTimeMs,omitempty"`
}

// QuoteRequest asks for a transfer estimate.
type QuoteRequest struct {
	FromAmountBaseUnit decimal.Decimal `json:"fromAmountBaseUnit"`
	FromChainID        uint64          `json:"fromChainId,string"`
	FromTokenAddress   string          `json:"fromTokenAddress"`
	RecipientAddress   string          `json:"recipientAddress"`
	ToChainID          uint64          `json:"toChainId,string"`
	ToTokenAddress     string          `json:"toTokenAddress"`
}

// QuoteResponse is a transfer estimate.
type QuoteResponse struct {
	EstCheckoutTimeMs  uint64                `json:"estCheckoutTimeMs"`
	EstFeeBreakdown    EstimatedFeeBreakdown `json:"estFeeBreakdown"`
	EstInputUSD        float64               `json:"estInputUsd"`
	EstOutputUSD       float64               `json:"estOutputUsd"`
	EstToTokenBaseUnit decimal.Decimal       `json:"estToTokenBaseUnit"`
	QuoteID            string                `json:"quoteId"`
}

// EstimatedFeeBreakdown itemizes the fees of a quote. Percentages are of the
// amount sent.
type EstimatedFeeBreakdown struct {
	AppFeeLabel     string  `json:"appFeeLabel"`
	AppFeePercent   float64 `json:"appFeePercent"`
	AppFeeUSD       float64 `json:"appFeeUsd"`
	FillCostPercent float64 `json:"fillCostPercent"`
	FillCostUSD     float64 `json:"fillCostUsd"`
	GasUSD          float64 `json:"gasUsd"`
	MaxSlippage     float64 `json:"maxSlippage"`
	MinReceived     float64 `json:"minReceived"`
	SwapImpact      float64 `json:"swapImpact"`
	SwapImpactUSD   float64 `json:"swapImpactUsd"`
	TotalImpact     float64 `json:"totalImpact"`
	TotalImpactUSD  float64 `json:"totalImpactUsd"`
}

// WithdrawRequest asks for withdrawal addresses bridging to a destination.
type WithdrawRequest struct {
	Address        string `json:"address"`
	ToChainID      uint64 `json:"toChainId,string"`
	ToTokenAddress string `json:"toTokenAddress"`
	RecipientAddr  string `json:"recipientAddr"`
}

// WithdrawResponse holds the addresses to send funds to.
type WithdrawResponse struct {
	Address DepositAddresses `json:"address"`
	Note    string           `json:"note"`
}
