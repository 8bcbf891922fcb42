package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment.
const EnvPrefix = "ORACLED"

const (
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DatadirKey is the local data directory where markets and price history
	// are persisted
	DatadirKey = "DATADIR"
	// ListenAddrKey is the <host:port> address of the websocket/http interface
	ListenAddrKey = "LISTEN_ADDR"
	// RPCEndpointKey is the url of the Solana JSON-RPC node
	RPCEndpointKey = "RPC_ENDPOINT"
	// RPCRequestTimeoutKey bounds every single RPC request
	RPCRequestTimeoutKey = "RPC_REQUEST_TIMEOUT"
	// RPCRateLimitKey is the max number of RPC requests per second
	RPCRateLimitKey = "RPC_RATE_LIMIT"
	// KeypairPathKey is the path of the oracle authority keypair file, either
	// a JSON array of 64 bytes or a base58 string
	KeypairPathKey = "KEYPAIR_PATH"
	// ProgramIDKey is the address of the slab program receiving price pushes
	ProgramIDKey = "PROGRAM_ID"
	// ProvidersKey is the ordered list of price providers, first has priority
	ProvidersKey = "PROVIDERS"
	// ProviderTimeoutKey bounds a single provider fetch
	ProviderTimeoutKey = "PROVIDER_TIMEOUT"
	// ProviderCacheTTLKey is how long providers reuse a successful response
	ProviderCacheTTLKey = "PROVIDER_CACHE_TTL"
	// DexscreenerURLKey overrides the DexScreener API base url
	DexscreenerURLKey = "DEXSCREENER_URL"
	// JupiterURLKey overrides the Jupiter price API base url
	JupiterURLKey = "JUPITER_URL"
	// DivergenceThresholdKey is the max relative spread between providers
	DivergenceThresholdKey = "DIVERGENCE_THRESHOLD"
	// DeviationThresholdKey is the max relative change from the last accepted
	// price
	DeviationThresholdKey = "DEVIATION_THRESHOLD"
	// StalenessKey is the max age of a cached price used as fallback
	StalenessKey = "STALENESS"
	// MinPushIntervalKey is the min time between two pushes for the same market
	MinPushIntervalKey = "MIN_PUSH_INTERVAL"
	// CrankIntervalKey is the period of the push scheduler
	CrankIntervalKey = "CRANK_INTERVAL"
	// MaxTxAttemptsKey is the max number of send attempts per push
	MaxTxAttemptsKey = "MAX_TX_ATTEMPTS"
	// ComputeUnitLimitKey is the compute budget requested by push transactions
	ComputeUnitLimitKey = "COMPUTE_UNIT_LIMIT"
	// MinPriorityFeeKey is the floor of the priority fee in micro-lamports
	MinPriorityFeeKey = "MIN_PRIORITY_FEE"
	// ConfirmIntervalKey is the polling period of signature statuses
	ConfirmIntervalKey = "CONFIRM_INTERVAL"
	// ConfirmTimeoutKey bounds the wait for a confirmation
	ConfirmTimeoutKey = "CONFIRM_TIMEOUT"
	// MaxConnectionsKey is the max number of concurrent websocket clients
	MaxConnectionsKey = "MAX_CONNECTIONS"
	// MaxSubscriptionsKey is the max number of markets a client can follow
	MaxSubscriptionsKey = "MAX_SUBSCRIPTIONS"
	// PingIntervalKey is the websocket heartbeat period
	PingIntervalKey = "PING_INTERVAL"
	// WebhookSecretKey, if set, is the HS256 secret verifying trade webhooks
	WebhookSecretKey = "WEBHOOK_SECRET"
	// MarketsKey seeds the market registry. Each entry has the form
	// <slab>:<mint>:<authority>[:<priceE6>]
	MarketsKey = "MARKETS"
	// StatsIntervalKey defines interval for printing memory statistics
	StatsIntervalKey = "STATS_INTERVAL"
	// EnableProfilerKey exposes pprof handlers on the http interface
	EnableProfilerKey = "ENABLE_PROFILER"

	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("oracled", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix(EnvPrefix)
	vip.AutomaticEnv()

	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(ListenAddrKey, ":8080")
	vip.SetDefault(RPCEndpointKey, "https://api.mainnet-beta.solana.com")
	vip.SetDefault(RPCRequestTimeoutKey, 15*time.Second)
	vip.SetDefault(RPCRateLimitKey, 10)
	vip.SetDefault(ProvidersKey, []string{"dexscreener", "jupiter"})
	vip.SetDefault(ProviderTimeoutKey, 10*time.Second)
	vip.SetDefault(ProviderCacheTTLKey, 10*time.Second)
	vip.SetDefault(DivergenceThresholdKey, 0.10)
	vip.SetDefault(DeviationThresholdKey, 0.30)
	vip.SetDefault(StalenessKey, 60*time.Second)
	vip.SetDefault(MinPushIntervalKey, 5*time.Second)
	vip.SetDefault(CrankIntervalKey, 10*time.Second)
	vip.SetDefault(MaxTxAttemptsKey, 3)
	vip.SetDefault(ComputeUnitLimitKey, 200000)
	vip.SetDefault(MinPriorityFeeKey, 1000)
	vip.SetDefault(ConfirmIntervalKey, 2*time.Second)
	vip.SetDefault(ConfirmTimeoutKey, 60*time.Second)
	vip.SetDefault(MaxConnectionsKey, 1000)
	vip.SetDefault(MaxSubscriptionsKey, 50)
	vip.SetDefault(PingIntervalKey, 20*time.Second)
	vip.SetDefault(StatsIntervalKey, 600)
	vip.SetDefault(EnableProfilerKey, false)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

// GetStringSlice also splits comma separated values, the way they come from
// env vars.
func GetStringSlice(key string) []string {
	values := make([]string, 0)
	for _, v := range vip.GetStringSlice(key) {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				values = append(values, s)
			}
		}
	}
	return values
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetMarkets returns the markets listed under MarketsKey.
func GetMarkets() ([]domain.Market, error) {
	entries := GetStringSlice(MarketsKey)
	markets := make([]domain.Market, 0, len(entries))
	for _, entry := range entries {
		market, err := ParseMarket(entry)
		if err != nil {
			return nil, err
		}
		markets = append(markets, market)
	}
	return markets, nil
}

// ParseMarket parses a <slab>:<mint>:<authority>[:<priceE6>] entry.
func ParseMarket(entry string) (domain.Market, error) {
	parts := strings.Split(entry, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return domain.Market{}, fmt.Errorf(
			"invalid market %q, must be <slab>:<mint>:<authority>[:<priceE6>]",
			entry,
		)
	}

	market := domain.Market{
		Address:         parts[0],
		Mint:            parts[1],
		OracleAuthority: parts[2],
	}
	if len(parts) == 4 {
		price, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return domain.Market{}, fmt.Errorf(
				"invalid authority price for market %s: %s", parts[0], err,
			)
		}
		market.AuthorityPriceE6 = price
	}

	if err := market.IsValid(); err != nil {
		return domain.Market{}, fmt.Errorf("invalid market %s: %w", parts[0], err)
	}
	for _, addr := range []string{market.Address, market.OracleAuthority} {
		if _, err := soltx.PublicKeyFromBase58(addr); err != nil {
			return domain.Market{}, fmt.Errorf("invalid address %s: %w", addr, err)
		}
	}
	return market, nil
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if len(GetString(RPCEndpointKey)) <= 0 {
		return fmt.Errorf("missing rpc endpoint")
	}

	if len(GetStringSlice(ProvidersKey)) <= 0 {
		return fmt.Errorf("at least one price provider is required")
	}

	for _, key := range []string{DivergenceThresholdKey, DeviationThresholdKey} {
		if v := GetFloat(key); v <= 0 || v >= 1 {
			return fmt.Errorf("%s must be in range (0, 1)", key)
		}
	}

	if GetInt(MaxTxAttemptsKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", MaxTxAttemptsKey)
	}

	if programID := GetString(ProgramIDKey); programID != "" {
		if _, err := soltx.PublicKeyFromBase58(programID); err != nil {
			return fmt.Errorf("invalid program id: %s", err)
		}
	}

	if _, err := GetMarkets(); err != nil {
		return err
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
