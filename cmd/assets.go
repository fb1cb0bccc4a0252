package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/pit"
	"github.com/etnz/pit/renderer"
	"github.com/google/subcommands"
)

type addAssetCmd struct {
	ticker   string
	name     string
	kind     string
	currency string
	isin     string
}

func (*addAssetCmd) Name() string     { return "add-asset" }
func (*addAssetCmd) Synopsis() string { return "declare a new asset" }
func (*addAssetCmd) Usage() string {
	return `pit add-asset -n <name> -t <type> -c <currency> [-s <ticker>] [-isin <isin>]

  Declares an asset that transactions can refer to. Stocks, ETFs, bonds,
  crypto and others need a ticker, savings accounts and cash do not.
`
}

func (c *addAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "s", "", "Ticker symbol")
	f.StringVar(&c.name, "n", "", "Human readable name")
	f.StringVar(&c.kind, "t", "Stock", "Asset type: "+assetTypes())
	f.StringVar(&c.currency, "c", "", "Currency of the asset, defaults to the base currency")
	f.StringVar(&c.isin, "isin", "", "ISIN code")
}

func assetTypes() string {
	names := make([]string, len(pit.AssetTypes))
	for i, t := range pit.AssetTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func (c *addAssetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := pit.ParseAssetType(c.kind)
	if err != nil {
		return usage("Error: %v", err)
	}

	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	currency := strings.ToUpper(c.currency)
	if currency == "" {
		if currency, err = e.baseCurrency(ctx); err != nil {
			return fail("Error reading base currency: %v", err)
		}
	}

	a, err := e.store.AddAsset(ctx, pit.Asset{
		Ticker:   c.ticker,
		Name:     c.name,
		Type:     kind,
		Currency: currency,
		ISIN:     c.isin,
	})
	if err != nil {
		return fail("Error adding asset: %v", err)
	}
	fmt.Fprintf(out, "Added asset %d: %s\n", a.ID, a.Label())
	return subcommands.ExitSuccess
}

type assetsCmd struct{}

func (*assetsCmd) Name() string     { return "assets" }
func (*assetsCmd) Synopsis() string { return "list declared assets" }
func (*assetsCmd) Usage() string {
	return `pit assets

  Lists all declared assets, by name.
`
}

func (*assetsCmd) SetFlags(*flag.FlagSet) {}

func (*assetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer e.Close()

	assets, err := e.store.ListAssets(ctx)
	if err != nil {
		return fail("Error listing assets: %v", err)
	}
	printMarkdown(renderer.AssetsMarkdown(assets))
	return subcommands.ExitSuccess
}

// resolveAsset finds an asset by id or label.
func resolveAsset(ctx context.Context, e *env, ref string) (pit.Asset, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return e.store.AssetByID(ctx, id)
	}
	return e.store.AssetByLabel(ctx, ref)
}
