package localbitcoins

import (
	"context"
	"strconv"
	"strings"

	"github.com/adamwoolhether/localbitcoins/client"
)

type marketQuery struct {
	Currency      string `json:"currency" validate:"required,len=3,alpha"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,printascii,excludesall=/?#%"`
	Page          int    `json:"page" validate:"gte=0"`
}

// BuyBitcoinsOnline lists public ads of traders selling bitcoins for
// currency, optionally narrowed to paymentMethod. Pages start at 1;
// zero is treated as the first page. No credentials are needed.
func (c *Client) BuyBitcoinsOnline(ctx context.Context, currency, paymentMethod string, page int) (*MarketPage, error) {
	return c.market(ctx, "buy-bitcoins-online", marketQuery{currency, paymentMethod, page})
}

// SellBitcoinsOnline lists public ads of traders buying bitcoins for
// currency, optionally narrowed to paymentMethod.
func (c *Client) SellBitcoinsOnline(ctx context.Context, currency, paymentMethod string, page int) (*MarketPage, error) {
	return c.market(ctx, "sell-bitcoins-online", marketQuery{currency, paymentMethod, page})
}

func (c *Client) market(ctx context.Context, listing string, q marketQuery) (*MarketPage, error) {
	if err := check(listing, q); err != nil {
		return nil, err
	}

	var path strings.Builder
	path.WriteString("/" + listing + "/" + q.Currency + "/")
	if q.PaymentMethod != "" {
		path.WriteString(q.PaymentMethod + "/")
	}
	path.WriteString(".json")

	var query client.Args
	if q.Page > 1 {
		query = query.Add("page", strconv.Itoa(q.Page))
	}

	var page MarketPage
	if err := c.api.ExecutePublic(ctx, path.String(), query, client.WithDestination(&page)); err != nil {
		return nil, err
	}

	return &page, nil
}
