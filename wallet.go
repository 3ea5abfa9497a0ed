package localbitcoins

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/adamwoolhether/localbitcoins/client"
)

type walletSend struct {
	Amount  decimal.Decimal `json:"amount" validate:"gt=0"`
	Address string          `json:"address" validate:"required,alphanum"`
}

// Wallet returns the wallet with the last 30 days of transactions.
func (c *Client) Wallet(ctx context.Context) (*Envelope[Wallet], error) {
	return get[Wallet](ctx, c, "/api/wallet/", nil)
}

// WalletBalance returns the wallet totals only.
func (c *Client) WalletBalance(ctx context.Context) (*Envelope[WalletBalance], error) {
	return get[WalletBalance](ctx, c, "/api/wallet-balance/", nil)
}

// WalletSend sends amount BTC to address.
func (c *Client) WalletSend(ctx context.Context, address string, amount decimal.Decimal) (*Envelope[StatusMessage], error) {
	if err := check("WalletSend", walletSend{amount, address}); err != nil {
		return nil, err
	}

	args := client.NewArgs("amount", amount.String(), "address", address)

	return post[StatusMessage](ctx, c, "/api/wallet-send/", args)
}

// WalletSendWithPin sends amount BTC to address, authorized by pin.
func (c *Client) WalletSendWithPin(ctx context.Context, address string, amount decimal.Decimal, pin string) (*Envelope[StatusMessage], error) {
	in := struct {
		walletSend
		Pincode string `json:"pincode" validate:"required,number"`
	}{walletSend{amount, address}, pin}
	if err := check("WalletSendWithPin", in); err != nil {
		return nil, err
	}

	args := client.NewArgs("amount", amount.String(), "address", address, "pincode", pin)

	return post[StatusMessage](ctx, c, "/api/wallet-send-pin/", args)
}

// WalletAddress returns an unused receiving address.
func (c *Client) WalletAddress(ctx context.Context) (*Envelope[WalletAddress], error) {
	return post[WalletAddress](ctx, c, "/api/wallet-addr/", nil)
}

// Fees returns the current deposit and outgoing fees.
func (c *Client) Fees(ctx context.Context) (*Envelope[Fees], error) {
	return get[Fees](ctx, c, "/api/fees/", nil)
}
