package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Deposit returns deposit addresses for req.Address.
func (c *Client) Deposit(ctx context.Context, req DepositRequest) (*DepositResponse, error) {
	if req.Address == "" {
		return nil, errors.New("address is required")
	}

	var resp DepositResponse
	if err := c.post(ctx, "/deposit", req, &resp); err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}
	return &resp, nil
}

// SupportedAssets lists assets accepted for deposit.
func (c *Client) SupportedAssets(ctx context.Context) (*SupportedAssetsResponse, error) {
	var resp SupportedAssetsResponse
	if err := c.get(ctx, "/supported-assets", &resp); err != nil {
		return nil, fmt.Errorf("supported assets: %w", err)
	}
	return &resp, nil
}

// Status lists deposit transactions for req.Address.
func (c *Client) Status(ctx context.Context, req StatusRequest) (*StatusResponse, error) {
	if req.Address == "" {
		return nil, errors.New("address is required")
	}

	var resp StatusResponse
	if err := c.get(ctx, "/status/"+url.PathEscape(req.Address), &resp); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return &resp, nil
}

// Quote estimates a transfer.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	var resp QuoteResponse
	if err := c.post(ctx, "/quote", req, &resp); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	return &resp, nil
}

// Withdraw returns addresses that bridge funds to the requested destination.
func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResponse, error) {
	if req.Address == "" {
		return nil, errors.New("address is required")
	}

	var resp WithdrawResponse
	if err := c.post(ctx, "/withdraw", req, &resp); err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	return &resp, nil
}
