package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{Settings: "lbcli.yaml"}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Main, "lbcli").
		WithSynopsis("lbcli [opts] command [opts]").
		WithDescription("lbcli calls the LocalBitcoins API with the key pair from the settings file or environment.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return lbMain(cfg, cc, args)
		}).
		WithSubs(
			MyselfCommand(cfg),
			AccountCommand(cfg),
			WalletBalanceCommand(cfg),
			FeesCommand(cfg),
			DashboardCommand(cfg),
			AdsCommand(cfg),
			RecentMessagesCommand(cfg),
			AttachmentCommand(cfg),
			LogoutCommand(cfg),
			MarketCommand(cfg),
			SmokeCommand(cfg))
}

func simpleCommand(mainCfg *MainConfig, name, desc string, run func(cfg *SimpleConfig, cc *cli.Context, args []string) error) *cli.Command {
	cfg := &SimpleConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Cmd, name).
		WithSynopsis(name).
		WithDescription(desc).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}

func MyselfCommand(mainCfg *MainConfig) *cli.Command {
	return simpleCommand(mainCfg, "myself", "show the token owner's profile", myself)
}

func WalletBalanceCommand(mainCfg *MainConfig) *cli.Command {
	return simpleCommand(mainCfg, "wallet-balance", "show the wallet balance", walletBalance)
}

func FeesCommand(mainCfg *MainConfig) *cli.Command {
	return simpleCommand(mainCfg, "fees", "show deposit and outgoing fees", fees)
}

func AdsCommand(mainCfg *MainConfig) *cli.Command {
	return simpleCommand(mainCfg, "ads", "list own advertisements", ads)
}

func RecentMessagesCommand(mainCfg *MainConfig) *cli.Command {
	return simpleCommand(mainCfg, "messages", "list recent messages", recentMessages)
}

func LogoutCommand(mainCfg *MainConfig) *cli.Command {
	return simpleCommand(mainCfg, "logout", "expire the access token", logout)
}

func SmokeCommand(mainCfg *MainConfig) *cli.Command {
	return simpleCommand(mainCfg, "smoke", "run a read-only tour of the private api", smoke)
}

func AccountCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &AccountConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Account, "account").
		WithAliases("acct").
		WithSynopsis("account <username>").
		WithDescription("show a user's public profile").
		WithRun(func(cc *cli.Context, args []string) error {
			return account(cfg, cc, args)
		})
}

func DashboardCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DashboardConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Dashboard, "dashboard").
		WithAliases("d").
		WithSynopsis("dashboard [-state released|canceled|closed]").
		WithDescription("list contacts").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dashboard(cfg, cc, args)
		})
}

func AttachmentCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &AttachmentConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Attachment, "attachment").
		WithAliases("att").
		WithSynopsis("attachment [-o file] <contact_id> <attachment_id>").
		WithDescription("download a contact message attachment").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return attachment(cfg, cc, args)
		})
}

func MarketCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &MarketConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Market, "market").
		WithAliases("m").
		WithSynopsis("market [-page n] buy|sell <currency> [payment_method]").
		WithDescription("list public online ads, no credentials needed").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return market(cfg, cc, args)
		})
}
