package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL"`
	Postgres Postgres
	Redis    Redis
	HTTP     HTTP
	API      API
	Cache    Cache
	Jobs     Jobs
	Session  Session
	Trading  Trading
	Argon2   Argon2
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type HTTP struct {
	Port            int           `env:"HTTP_PORT"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"`
}

type API struct {
	Debug   bool          `env:"API_DEBUG"`
	Timeout time.Duration `env:"API_TIMEOUT"`
	AsxApi  AsxApi
}

type AsxApi struct {
	Url string `env:"ASX_API_URL"`
}

type Cache struct {
	SharesExpiration      time.Duration `env:"CACHE_SHARES_EXPIRATION"`
	LeaderboardExpiration time.Duration `env:"CACHE_LEADERBOARD_EXPIRATION"`
}

type Jobs struct {
	UpdateSharesInterval time.Duration `env:"UPDATE_SHARES_JOB_INTERVAL"`
	LeaderboardCrontab   string        `env:"LEADERBOARD_SNAPSHOT_CRONTAB"`
}

type Session struct {
	Expiration time.Duration `env:"SESSION_EXPIRATION"`
}

type Trading struct {
	StartingBalance    string        `env:"TRADING_STARTING_BALANCE"`
	StoreTimeout       time.Duration `env:"TRADING_STORE_TIMEOUT"`
	NoBuyHistoryPolicy string        `env:"TRADING_NO_BUY_HISTORY_POLICY" envDefault:"skip"`
	PageLimit          int           `env:"TRADING_PAGE_LIMIT" envDefault:"10"`
}

type Argon2 struct {
	Memory      uint32 `env:"ARGON2_MEMORY" envDefault:"65536"`
	Iterations  uint32 `env:"ARGON2_ITERATIONS" envDefault:"3"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"2"`
	SaltLength  uint32 `env:"ARGON2_SALT_LENGTH" envDefault:"16"`
	KeyLength   uint32 `env:"ARGON2_KEY_LENGTH" envDefault:"32"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
