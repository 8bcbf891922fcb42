package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/slab-network/oracled/config"
	"github.com/urfave/cli/v2"
)

// Every flag overrides the config key of the same name, ie. --rpc-endpoint
// sets RPC_ENDPOINT.
var configKeys = []struct {
	key   string
	usage string
}{
	{config.LogLevelKey, "logrus level, 0 (panic) to 6 (trace)"},
	{config.DatadirKey, "data directory"},
	{config.ListenAddrKey, "<host:port> of the websocket/http interface"},
	{config.RPCEndpointKey, "solana json-rpc endpoint"},
	{config.RPCRequestTimeoutKey, "timeout of a single rpc request"},
	{config.RPCRateLimitKey, "max rpc requests per second"},
	{config.KeypairPathKey, "path of the oracle authority keypair"},
	{config.ProgramIDKey, "address of the slab program"},
	{config.ProvidersKey, "comma separated price providers, by priority"},
	{config.ProviderTimeoutKey, "timeout of a single provider fetch"},
	{config.ProviderCacheTTLKey, "ttl of provider responses"},
	{config.DexscreenerURLKey, "dexscreener api base url"},
	{config.JupiterURLKey, "jupiter price api base url"},
	{config.DivergenceThresholdKey, "max relative spread among providers"},
	{config.DeviationThresholdKey, "max relative change from the last price"},
	{config.StalenessKey, "max age of a cached fallback price"},
	{config.MinPushIntervalKey, "min time between pushes to the same market"},
	{config.CrankIntervalKey, "period of the push scheduler"},
	{config.MaxTxAttemptsKey, "max send attempts per push"},
	{config.ComputeUnitLimitKey, "compute unit limit of push transactions"},
	{config.MinPriorityFeeKey, "min priority fee in micro-lamports"},
	{config.ConfirmIntervalKey, "polling period of transaction status"},
	{config.ConfirmTimeoutKey, "max wait for a transaction confirmation"},
	{config.MaxConnectionsKey, "max concurrent websocket clients"},
	{config.MaxSubscriptionsKey, "max markets per websocket client"},
	{config.PingIntervalKey, "websocket heartbeat period"},
	{config.WebhookSecretKey, "hs256 secret of the trade webhook"},
	{config.MarketsKey, "comma separated <slab>:<mint>:<authority>[:<priceE6>]"},
	{config.StatsIntervalKey, "seconds between memory stats logs, 0 disables"},
	{config.EnableProfilerKey, "expose pprof handlers"},
}

func flagName(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

func flags() []cli.Flag {
	list := make([]cli.Flag, 0, len(configKeys))
	for _, k := range configKeys {
		list = append(list, &cli.StringFlag{
			Name:  flagName(k.key),
			Usage: fmt.Sprintf("%s (env %s_%s)", k.usage, config.EnvPrefix, k.key),
		})
	}
	return list
}

// applyFlags exports the flags given on the command line as env vars, so
// that they take precedence once the config is initialized.
func applyFlags(ctx *cli.Context) error {
	for _, k := range configKeys {
		name := flagName(k.key)
		if !ctx.IsSet(name) {
			continue
		}
		env := fmt.Sprintf("%s_%s", config.EnvPrefix, k.key)
		if err := os.Setenv(env, ctx.String(name)); err != nil {
			return err
		}
	}
	return nil
}
