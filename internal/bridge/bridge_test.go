package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves one canned response and checks the request line.
func newTestServer(t *testing.T, method, path string, status int, respBody string, checkBody func(map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, method, r.Method)
		assert.Equal(t, path, r.URL.Path)

		if checkBody != nil {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var body map[string]any
			require.NoError(t, json.Unmarshal(raw, &body))
			checkBody(body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Deposit(t *testing.T) {
	server := newTestServer(t, http.MethodPost, "/deposit", http.StatusCreated, `{
		"address": {
			"evm": "0x23566f8b2E82aDfCf01846E54899d110e97AC053",
			"svm": "CrvTBvzryYxBHbWu2TiQpcqD5M7Le7iBKzVmEj3f36Jb",
			"btc": "bc1q8eau83qffxcj8ht4hsjdza3lha9r3egfqysj3g"
		},
		"note": "Only certain chains and tokens are supported."
	}`, func(body map[string]any) {
		assert.Equal(t, map[string]any{"address": "0x56687bf447db6ffa42ffe2204a05edaa20f55839"}, body)
	})

	c := NewClient(server.URL)
	resp, err := c.Deposit(context.Background(), DepositRequest{Address: "0x56687bf447db6ffa42ffe2204a05edaa20f55839"})
	require.NoError(t, err)

	assert.Equal(t, "0x23566f8b2E82aDfCf01846E54899d110e97AC053", resp.Address.EVM)
	assert.Equal(t, "CrvTBvzryYxBHbWu2TiQpcqD5M7Le7iBKzVmEj3f36Jb", resp.Address.SVM)
	assert.Equal(t, "bc1q8eau83qffxcj8ht4hsjdza3lha9r3egfqysj3g", resp.Address.BTC)
	require.NotNil(t, resp.Note)
	assert.Contains(t, *resp.Note, "supported")
}

func TestClient_DepositBadRequest(t *testing.T) {
	server := newTestServer(t, http.MethodPost, "/deposit", http.StatusBadRequest, `{"error": "Invalid address"}`, nil)

	c := NewClient(server.URL)
	_, err := c.Deposit(context.Background(), DepositRequest{Address: "0xnope"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid address", apiErr.Message)
}

func TestClient_DepositRequiresAddress(t *testing.T) {
	c := NewClient("http://unused")
	_, err := c.Deposit(context.Background(), DepositRequest{})
	assert.Error(t, err)
}

func TestClient_SupportedAssets(t *testing.T) {
	server := newTestServer(t, http.MethodGet, "/supported-assets", http.StatusOK, `{
		"supportedAssets": [{
			"chainId": "1",
			"chainName": "Ethereum",
			"token": {"name": "USD Coin", "symbol": "USDC", "address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "decimals": 6},
			"minCheckoutUsd": 45.95
		}, {
			"chainId": "137",
			"chainName": "Polygon",
			"token": {"name": "Bridged USDC", "symbol": "USDC.e", "address": "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", "decimals": 6},
			"minCheckoutUsd": 2
		}]
	}`, nil)

	c := NewClient(server.URL)
	resp, err := c.SupportedAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.SupportedAssets, 2)

	eth := resp.SupportedAssets[0]
	assert.Equal(t, uint64(1), eth.ChainID)
	assert.Equal(t, "Ethereum", eth.ChainName)
	assert.Equal(t, "USDC", eth.Token.Symbol)
	assert.Equal(t, uint8(6), eth.Token.Decimals)
	assert.True(t, eth.MinCheckoutUSD.Equal(decimal.RequireFromString("45.95")))
	assert.Equal(t, uint64(137), resp.SupportedAssets[1].ChainID)
	assert.Nil(t, resp.Note)
}

func TestClient_SupportedAssetsServerError(t *testing.T) {
	server := newTestServer(t, http.MethodGet, "/supported-assets", http.StatusInternalServerError, `{"error": "Internal server error"}`, nil)

	c := NewClient(server.URL, WithRetries(0, 0))
	_, err := c.SupportedAssets(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.True(t, apiErr.IsRetryable())
}

func TestClient_Status(t *testing.T) {
	server := newTestServer(t, http.MethodGet, "/status/0x9cb12Ec30568ab763ae5891ce4b8c5C96CeD72C9", http.StatusOK, `{
		"transactions": [{
			"fromChainId": "1151111081099710",
			"fromTokenAddress": "11111111111111111111111111111111",
			"fromAmountBaseUnit": "13566635",
			"toChainId": "137",
			"toTokenAddress": "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			"status": "DEPOSIT_DETECTED"
		}, {
			"fromChainId": "8453",
			"fromTokenAddress": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			"fromAmountBaseUnit": "50000000",
			"toChainId": "137",
			"toTokenAddress": "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			"status": "COMPLETED",
			"txHash": "0xabc",
			"createdTimeMs": 1757646914535
		}]
	}`, nil)

	c := NewClient(server.URL)
	resp, err := c.Status(context.Background(), StatusRequest{Address: "0x9cb12Ec30568ab763ae5891ce4b8c5C96CeD72C9"})
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 2)

	pending := resp.Transactions[0]
	assert.Equal(t, uint64(1151111081099710), pending.FromChainID)
	assert.True(t, pending.FromAmountBaseUnit.Equal(decimal.NewFromInt(13566635)))
	assert.Equal(t, StatusDepositDetected, pending.Status)
	assert.False(t, pending.Status.IsFinal())
	assert.Nil(t, pending.TxHash)

	done := resp.Transactions[1]
	assert.Equal(t, StatusCompleted, done.Status)
	assert.True(t, done.Status.IsFinal())
	require.NotNil(t, done.TxHash)
	assert.Equal(t, "0xabc", *done.TxHash)
	require.NotNil(t, done.CreatedTimeMs)
	assert.Equal(t, uint64(1757646914535), *done.CreatedTimeMs)
}

func TestClient_Quote(t *testing.T) {
	server := newTestServer(t, http.MethodPost, "/quote", http.StatusOK, `{
		"estCheckoutTimeMs": 25000,
		"estFeeBreakdown": {
			"appFeeLabel": "Fun.xyz fee", "appFeePercent": 0, "appFeeUsd": 0,
			"fillCostPercent": 0, "fillCostUsd": 0, "gasUsd": 0.003,
			"maxSlippage": 0, "minReceived": 14.488305, "swapImpact": 0,
			"swapImpactUsd": 0, "totalImpact": 0, "totalImpactUsd": 0
		},
		"estInputUsd": 14.488305,
		"estOutputUsd": 14.488305,
		"estToTokenBaseUnit": "14491203",
		"quoteId": "0x00c34ba467184b0146406d62b0e60aaa24ed52460bd456222b6155a0d9de0ad5"
	}`, func(body map[string]any) {
		assert.Equal(t, map[string]any{
			"fromAmountBaseUnit": "14500000",
			"fromChainId":        "137",
			"fromTokenAddress":   "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			"recipientAddress":   "0x17eC161f126e82A8ba337f4022d574DBEaFef575",
			"toChainId":          "137",
			"toTokenAddress":     "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		}, body)
	})

	c := NewClient(server.URL)
	resp, err := c.Quote(context.Background(), QuoteRequest{
		FromAmountBaseUnit: decimal.NewFromInt(14500000),
		FromChainID:        137,
		FromTokenAddress:   "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		RecipientAddress:   "0x17eC161f126e82A8ba337f4022d574DBEaFef575",
		ToChainID:          137,
		ToTokenAddress:     "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(25000), resp.EstCheckoutTimeMs)
	assert.Equal(t, "Fun.xyz fee", resp.EstFeeBreakdown.AppFeeLabel)
	assert.InDelta(t, 0.003, resp.EstFeeBreakdown.GasUSD, 1e-9)
	assert.True(t, resp.EstToTokenBaseUnit.Equal(decimal.NewFromInt(14491203)))
	assert.Equal(t, "0x00c34ba467184b0146406d62b0e60aaa24ed52460bd456222b6155a0d9de0ad5", resp.QuoteID)
}

func TestClient_Withdraw(t *testing.T) {
	server := newTestServer(t, http.MethodPost, "/withdraw", http.StatusOK, `{
		"address": {
			"evm": "0x23566f8b2E82aDfCf01846E54899d110e97AC053",
			"svm": "CrvTBvzryYxBHbWu2TiQpcqD5M7Le7iBKzVmEj3f36Jb",
			"btc": "bc1q8eau83qffxcj8ht4hsjdza3lha9r3egfqysj3g"
		},
		"note": "Send funds to these addresses to bridge to your destination chain and token."
	}`, func(body map[string]any) {
		assert.Equal(t, map[string]any{
			"address":        "0x56687bf447db6ffa42ffe2204a05edaa20f55839",
			"toChainId":      "1",
			"toTokenAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"recipientAddr":  "0x0000000000000000000000000000000000000000",
		}, body)
	})

	c := NewClient(server.URL)
	resp, err := c.Withdraw(context.Background(), WithdrawRequest{
		Address:        "0x56687bf447db6ffa42ffe2204a05edaa20f55839",
		ToChainID:      1,
		ToTokenAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		RecipientAddr:  "0x0000000000000000000000000000000000000000",
	})
	require.NoError(t, err)

	assert.Equal(t, "0x23566f8b2E82aDfCf01846E54899d110e97AC053", resp.Address.EVM)
	assert.Contains(t, resp.Note, "bridge to your destination")
}
