package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/shopspring/decimal"

	"github.com/adamwoolhether/localbitcoins"
	"github.com/adamwoolhether/localbitcoins/client"
)

func lbMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cfg.ctx = ctx

	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	if err != nil {
		reportError(os.Stderr, err)
		return cli.ExitCodeErr(1)
	}

	return nil
}

// reportError prints err, highlighting what the server said.
func reportError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)

	var apiErr *client.APIError
	var fields localbitcoins.FieldErrors
	switch {
	case errors.As(err, &apiErr):
		red.Fprint(w, "api error")
		fmt.Fprintf(w, " (status %d): %s\n", apiErr.StatusCode, apiErr.Error())
	case errors.As(err, &fields):
		red.Fprintln(w, "invalid arguments")
		for _, f := range fields {
			fmt.Fprintf(w, "  %s: %s\n", color.YellowString(f.Field), f.Err)
		}
	case errors.Is(err, client.ErrTimeout):
		red.Fprint(w, "timeout")
		fmt.Fprintf(w, ": %v\n", err)
	default:
		red.Fprint(w, "error")
		fmt.Fprintf(w, ": %v\n", err)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeBinary copies b to w unless w is a terminal.
func writeBinary(w io.Writer, b []byte) error {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return fmt.Errorf("%w: refusing to write binary data to a terminal, use -o", cli.ErrUsage)
	}
	_, err := w.Write(b)
	return err
}

func myself(cfg *SimpleConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Cmd.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	return showMyself(cfg.context(), c, cc.Out)
}

func showMyself(ctx context.Context, c *localbitcoins.Client, w io.Writer) error {
	env, err := c.Myself(ctx)
	if err != nil {
		return err
	}
	return printJSON(w, env.Data)
}

func account(cfg *AccountConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Account.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: account requires a username", cli.ErrUsage)
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	env, err := c.AccountInfo(cfg.context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cc.Out, env.Data)
}

func walletBalance(cfg *SimpleConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Cmd.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	return showWalletBalance(cfg.context(), c, cc.Out)
}

func showWalletBalance(ctx context.Context, c *localbitcoins.Client, w io.Writer) error {
	env, err := c.WalletBalance(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "balance %s BTC (sendable %s)\n", env.Data.Total.Balance, env.Data.Total.Sendable)
	return err
}

func fees(cfg *SimpleConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Cmd.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	env, err := c.Fees(cfg.context())
	if err != nil {
		return err
	}
	return printJSON(cc.Out, env.Data)
}

func dashboard(cfg *DashboardConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Dashboard.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	return showDashboard(cfg.context(), c, cc.Out, cfg.State)
}

func showDashboard(ctx context.Context, c *localbitcoins.Client, w io.Writer, state string) error {
	var (
		env *localbitcoins.Envelope[localbitcoins.ContactList]
		err error
	)
	switch state {
	case "", "open":
		env, err = c.Dashboard(ctx)
	case "released":
		env, err = c.DashboardReleased(ctx)
	case "canceled":
		env, err = c.DashboardCanceled(ctx)
	case "closed":
		env, err = c.DashboardClosed(ctx)
	default:
		return fmt.Errorf("%w: unknown state %q", cli.ErrUsage, state)
	}
	if err != nil {
		return err
	}

	for _, e := range env.Data.ContactList {
		ct := e.Data
		fmt.Fprintf(w, "%d\t%s\t%s %s\t%s BTC\n", ct.ContactID, ct.Advertisement.TradeType, ct.Amount, ct.Currency, ct.AmountBTC)
	}
	_, err = fmt.Fprintf(w, "%d contacts\n", env.Data.ContactCount)
	return err
}

func ads(cfg *SimpleConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Cmd.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	env, err := c.OwnAds(cfg.context())
	if err != nil {
		return err
	}
	return printAds(cc.Out, env.Data)
}

func printAds(w io.Writer, list localbitcoins.AdList) error {
	for _, e := range list.AdList {
		ad := e.Data
		limits := "-"
		if ad.MinAmount.Valid || ad.MaxAmount.Valid {
			limits = nullString(ad.MinAmount) + ".." + nullString(ad.MaxAmount)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s %s\t%s\n", ad.AdID, ad.TradeType, ad.Profile.Username, ad.TempPrice.Decimal, ad.Currency, limits)
	}
	_, err := fmt.Fprintf(w, "%d ads\n", list.AdCount)
	return err
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func recentMessages(cfg *SimpleConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Cmd.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	env, err := c.RecentMessages(cfg.context())
	if err != nil {
		return err
	}
	return printJSON(cc.Out, env.Data)
}

func attachment(cfg *AttachmentConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Attachment.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: attachment requires a contact id and an attachment id", cli.ErrUsage)
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}

	if cfg.Out != "" {
		return c.SaveContactMessageAttachment(cfg.context(), args[0], args[1], cfg.Out, client.WithProgress())
	}

	b, err := c.ContactMessageAttachment(cfg.context(), args[0], args[1])
	if err != nil {
		return err
	}
	return writeBinary(cc.Out, b)
}

func logout(cfg *SimpleConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Cmd.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	env, err := c.Logout(cfg.context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cc.Out, env.Data.Message)
	return err
}

func market(cfg *MarketConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Market.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: market requires buy|sell and a currency", cli.ErrUsage)
	}
	c, err := cfg.client(false)
	if err != nil {
		return err
	}

	var method string
	if len(args) == 3 {
		method = args[2]
	}
	return showMarket(cfg.context(), c, cc.Out, args[0], args[1], method, cfg.Page)
}

func showMarket(ctx context.Context, c *localbitcoins.Client, w io.Writer, side, currency, method string, page int) error {
	var (
		res *localbitcoins.MarketPage
		err error
	)
	switch side {
	case "buy":
		res, err = c.BuyBitcoinsOnline(ctx, currency, method, page)
	case "sell":
		res, err = c.SellBitcoinsOnline(ctx, currency, method, page)
	default:
		return fmt.Errorf("%w: market side must be buy or sell, got %q", cli.ErrUsage, side)
	}
	if err != nil {
		return err
	}

	if err := printAds(w, res.Data); err != nil {
		return err
	}
	if res.Pagination.Next != "" {
		_, err = fmt.Fprintln(w, "next:", res.Pagination.Next)
	}
	return err
}

func smoke(cfg *SimpleConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Cmd.Parse(cc, args); err != nil {
		return err
	}
	c, err := cfg.client(true)
	if err != nil {
		return err
	}
	return runSmoke(cfg.context(), c, cc.Out)
}

// runSmoke exercises the read-only private calls in turn and stops at
// the first failure.
func runSmoke(ctx context.Context, c *localbitcoins.Client, w io.Writer) error {
	ok := color.New(color.FgGreen).SprintFunc()

	me, err := c.Myself(ctx)
	if err != nil {
		return fmt.Errorf("myself: %w", err)
	}
	fmt.Fprintln(w, ok("myself"), me.Data.Username)

	if err := showWalletBalance(ctx, c, w); err != nil {
		return fmt.Errorf("wallet balance: %w", err)
	}

	if err := showDashboard(ctx, c, w, ""); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	own, err := c.OwnAds(ctx)
	if err != nil {
		return fmt.Errorf("ads: %w", err)
	}
	fmt.Fprintln(w, ok("ads"), own.Data.AdCount)

	msgs, err := c.RecentMessages(ctx)
	if err != nil {
		return fmt.Errorf("recent messages: %w", err)
	}
	fmt.Fprintln(w, ok("messages"), msgs.Data.MessageCount)

	if err := showDashboard(ctx, c, w, "released"); err != nil {
		return fmt.Errorf("released: %w", err)
	}

	f, err := c.Fees(ctx)
	if err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	_, err = fmt.Fprintln(w, ok("deposit fee"), f.Data.DepositFee)
	return err
}
