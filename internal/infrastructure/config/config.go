package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Registry RegistryConfig `mapstructure:"registry"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Neo4J    Neo4JConfig    `mapstructure:"neo4j"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env        string `mapstructure:"env"`
	LogLevel   string `mapstructure:"log_level"`
	LogFile    string `mapstructure:"log_file"`
	LogMaxSize int    `mapstructure:"log_max_size_mb"`
	HTTPPort   int    `mapstructure:"http_port"`
}

// SolanaConfig represents the ledger RPC configuration
type SolanaConfig struct {
	RPCURL            string            `mapstructure:"rpc_url"`
	Headers           map[string]string `mapstructure:"headers"`
	Commitment        string            `mapstructure:"commitment"`
	RequestTimeout    time.Duration     `mapstructure:"request_timeout"`
	RequestsPerSecond float64           `mapstructure:"requests_per_second"`
	Burst             int               `mapstructure:"burst"`
}

// AnalysisConfig tunes the analysis pipeline
type AnalysisConfig struct {
	WorkerPoolSize       int           `mapstructure:"worker_pool_size"`
	HistoryLimit         int           `mapstructure:"history_limit"`
	RecentWindow         time.Duration `mapstructure:"recent_window"`
	FundingCandidates    int           `mapstructure:"funding_candidates"`
	MinDepositSOL        float64       `mapstructure:"min_deposit_sol"`
	MinTransferSOL       float64       `mapstructure:"min_transfer_sol"`
	ConnectionPageSize   int           `mapstructure:"connection_page_size"`
	ConnectionMaxPages   int           `mapstructure:"connection_max_pages"`
	PageDelay            time.Duration `mapstructure:"page_delay"`
	RateLimitCooldown    time.Duration `mapstructure:"rate_limit_cooldown"`
	MatchPolicy          string        `mapstructure:"match_policy"`
	SampleRecent         int           `mapstructure:"sample_recent"`
	SampleMiddle         int           `mapstructure:"sample_middle"`
	SampleOldest         int           `mapstructure:"sample_oldest"`
	ServiceMinTxPerDay   float64       `mapstructure:"service_min_tx_per_day"`
	ServiceMinSignatures int           `mapstructure:"service_min_signatures"`
	RetryAttempts        int           `mapstructure:"retry_attempts"`
	RetryBaseDelay       time.Duration `mapstructure:"retry_base_delay"`
	TargetScore          int           `mapstructure:"target_score"`
	Persist              bool          `mapstructure:"persist"`
}

// RegistryConfig holds known exchange entities added on top of the shipped table
type RegistryConfig struct {
	Entities []EntityConfig `mapstructure:"entities"`
}

// EntityConfig is one configured exchange and its hot wallets
type EntityConfig struct {
	Key        string   `mapstructure:"key"`
	Name       string   `mapstructure:"name"`
	Confidence int      `mapstructure:"confidence"`
	Addresses  []string `mapstructure:"addresses"`
}

// RedisConfig represents the ledger cache configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
	BalanceTTL   time.Duration `mapstructure:"balance_ttl"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	QueueGroup         string        `mapstructure:"queue_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MaxPendingMessages int           `mapstructure:"max_pending_messages"`
	Workers            int           `mapstructure:"workers"`
	Enabled            bool          `mapstructure:"enabled"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	Enabled                      bool          `mapstructure:"enabled"`
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/wallet-bundle-analyzer")

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("")

	// Map environment variables to nested config keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.log_file", "")
	viper.SetDefault("app.log_max_size_mb", 100)
	viper.SetDefault("app.http_port", 8080)

	// Solana defaults
	viper.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("solana.commitment", "confirmed")
	viper.SetDefault("solana.request_timeout", "30s")
	viper.SetDefault("solana.requests_per_second", 15)
	viper.SetDefault("solana.burst", 1)

	// Analysis defaults
	viper.SetDefault("analysis.worker_pool_size", 4)
	viper.SetDefault("analysis.history_limit", 1000)
	viper.SetDefault("analysis.recent_window", "168h")
	viper.SetDefault("analysis.funding_candidates", 20)
	viper.SetDefault("analysis.min_deposit_sol", 0.5)
	viper.SetDefault("analysis.min_transfer_sol", 0.001)
	viper.SetDefault("analysis.connection_page_size", 1000)
	viper.SetDefault("analysis.connection_max_pages", 3)
	viper.SetDefault("analysis.page_delay", "100ms")
	viper.SetDefault("analysis.rate_limit_cooldown", "5s")
	viper.SetDefault("analysis.match_policy", "first")
	viper.SetDefault("analysis.sample_recent", 150)
	viper.SetDefault("analysis.sample_middle", 100)
	viper.SetDefault("analysis.sample_oldest", 50)
	viper.SetDefault("analysis.service_min_tx_per_day", 1000)
	viper.SetDefault("analysis.service_min_signatures", 500)
	viper.SetDefault("analysis.retry_attempts", 3)
	viper.SetDefault("analysis.retry_base_delay", "1s")
	viper.SetDefault("analysis.target_score", 100)
	viper.SetDefault("analysis.persist", true)

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.key_prefix", "bundle-analyzer")
	viper.SetDefault("redis.pool_size", 20)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("redis.ttl", "24h")
	viper.SetDefault("redis.balance_ttl", "1m")

	// NATS defaults
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.subject_prefix", "bundles")
	viper.SetDefault("nats.queue_group", "wallet-bundle-analyzer")
	viper.SetDefault("nats.connect_timeout", "10s")
	viper.SetDefault("nats.reconnect_attempts", 5)
	viper.SetDefault("nats.reconnect_delay", "2s")
	viper.SetDefault("nats.request_timeout", "10m")
	viper.SetDefault("nats.max_pending_messages", 100)
	viper.SetDefault("nats.workers", 2)
	viper.SetDefault("nats.enabled", true)

	// Neo4J defaults
	viper.SetDefault("neo4j.enabled", true)
	viper.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")
	viper.SetDefault("neo4j.connect_timeout", "10s")
	viper.SetDefault("neo4j.max_connection_pool_size", 50)
	viper.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	// Bind env for the endpoints most often overridden
	viper.BindEnv("nats.url", "NATS_URL")
	viper.BindEnv("solana.rpc_url", "SOLANA_RPC_URL")
}
