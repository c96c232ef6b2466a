package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	Telegram          Telegram
	Redis             Redis
	API               API
	Sheets            Sheets
	GoogleDrive       GoogleDrive
	Cache             Cache
	Jobs              Jobs
	Ledger            Ledger
	Users             []string      `env:"USERS" envSeparator:","`
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION" envDefault:"24h"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT" envDefault:"10s"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES" envDefault:"52428800"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout  time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	YahooApi YahooApi
}

type YahooApi struct {
	Url string `env:"YAHOO_API_URL" envDefault:"https://query1.finance.yahoo.com"`
}

type Sheets struct {
	CredentialsFile string `env:"SHEETS_CREDENTIALS_FILE"`
	SpreadsheetID   string `env:"SHEETS_SPREADSHEET_ID"`
	SheetName       string `env:"SHEETS_SHEET_NAME" envDefault:"portfolios"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"168h"`
}

type Cache struct {
	QuotesExpiration time.Duration `env:"CACHE_QUOTES_EXPIRATION" envDefault:"5m"`
}

type Jobs struct {
	WarmQuoteCacheInterval time.Duration `env:"WARM_QUOTE_CACHE_JOB_INTERVAL" envDefault:"5m"`
	DriveCleanupInterval   time.Duration `env:"DRIVE_CLEANUP_JOB_INTERVAL" envDefault:"12h"`
}

// Ledger holds the trading constants. All money values are denominated
// in the quote currency.
type Ledger struct {
	QuoteCurrency   string          `env:"LEDGER_QUOTE_CURRENCY" envDefault:"ILS"`
	InitialBalance  decimal.Decimal `env:"LEDGER_INITIAL_BALANCE" envDefault:"10000"`
	CommissionRate  decimal.Decimal `env:"LEDGER_COMMISSION_RATE" envDefault:"0.001"`
	MinCommission   decimal.Decimal `env:"LEDGER_MIN_COMMISSION" envDefault:"5"`
	FxPairSymbol    string          `env:"LEDGER_FX_PAIR_SYMBOL" envDefault:"ILS=X"`
	FallbackFxRate  decimal.Decimal `env:"LEDGER_FALLBACK_FX_RATE" envDefault:"3.6"`
	HistoryPageSize int             `env:"LEDGER_HISTORY_PAGE_SIZE" envDefault:"20"`
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
