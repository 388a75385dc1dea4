package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rickgao/rtds-recorder/internal/bridge"
)

var depositCmd = &cobra.Command{
	Use:   "deposit <wallet-address>",
	Short: "Get deposit addresses for a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Deposit(cmd.Context(), bridge.DepositRequest{Address: args[0]})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List assets supported for deposit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.SupportedAssets(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <deposit-address>",
	Short: "Show transactions sent to a deposit address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Status(cmd.Context(), bridge.StatusRequest{Address: args[0]})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var quoteFlags struct {
	amount    string
	fromChain uint64
	fromToken string
	recipient string
	toChain   uint64
	toToken   string
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Estimate fees and output for a transfer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(quoteFlags.amount)
		if err != nil {
			return fmt.Errorf("invalid --amount %q: %w", quoteFlags.amount, err)
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Quote(cmd.Context(), bridge.QuoteRequest{
			FromAmountBaseUnit: amount,
			FromChainID:        quoteFlags.fromChain,
			FromTokenAddress:   quoteFlags.fromToken,
			RecipientAddress:   quoteFlags.recipient,
			ToChainID:          quoteFlags.toChain,
			ToTokenAddress:     quoteFlags.toToken,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var withdrawFlags struct {
	toChain   uint64
	toToken   string
	recipient string
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <wallet-address>",
	Short: "Get addresses that bridge a withdrawal to another chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Withdraw(cmd.Context(), bridge.WithdrawRequest{
			Address:        args[0],
			ToChainID:      withdrawFlags.toChain,
			ToTokenAddress: withdrawFlags.toToken,
			RecipientAddr:  withdrawFlags.recipient,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	f := quoteCmd.Flags()
	f.StringVar(&quoteFlags.amount, "amount", "", "amount to send in base units of the source token")
	f.Uint64Var(&quoteFlags.fromChain, "from-chain", 0, "source chain id")
	f.StringVar(&quoteFlags.fromToken, "from-token", "", "source token address")
	f.StringVar(&quoteFlags.recipient, "recipient", "", "recipient address")
	f.Uint64Var(&quoteFlags.toChain, "to-chain", 0, "destination chain id")
	f.StringVar(&quoteFlags.toToken, "to-token", "", "destination token address")
	for _, name := range []string{"amount", "from-chain", "from-token", "recipient", "to-chain", "to-token"} {
		_ = quoteCmd.MarkFlagRequired(name)
	}

	w := withdrawCmd.Flags()
	w.Uint64Var(&withdrawFlags.toChain, "to-chain", 0, "destination chain id")
	w.StringVar(&withdrawFlags.toToken, "to-token", "", "destination token address")
	w.StringVar(&withdrawFlags.recipient, "recipient", "", "recipient address on the destination chain")
	for _, name := range []string{"to-chain", "to-token", "recipient"} {
		_ = withdrawCmd.MarkFlagRequired(name)
	}
}
