package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Row store backends accepted by STORE_BACKEND.
const (
	BackendSheets   = "sheets"
	BackendAirtable = "airtable"
	BackendXLSX     = "xlsx"
	BackendMemory   = "memory"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogFile   string `env:"LOG_FILE"`
	StaticDir string `env:"STATIC_DIR"`

	// Backend is one of the Backend* constants. When empty it is inferred
	// from whichever credentials are present (see Resolve).
	Backend string `env:"STORE_BACKEND"`

	Sheets   SheetsConfig
	Airtable AirtableConfig
	XLSX     XLSXConfig
	Admin    AdminConfig
	Orders   OrdersConfig

	Mongo MongoConfig
	Redis RedisConfig
	Audit AuditConfig
}

type SheetsConfig struct {
	Credentials       string `env:"GOOGLE_SHEETS_CREDENTIALS"`
	CredentialsBase64 string `env:"GOOGLE_SHEETS_CREDENTIALS_B64"`
	CredentialsFile   string `env:"GOOGLE_SHEETS_CREDENTIALS_FILE"`
	SpreadsheetID     string `env:"GOOGLE_SHEETS_ID"`
	UsersRange        string `env:"GOOGLE_SHEETS_RANGE,        default=Users"`
	OrdersRange       string `env:"GOOGLE_SHEETS_ORDERS_RANGE, default=Orders"`
}

func (c SheetsConfig) hasCredentials() bool {
	return c.Credentials != "" || c.CredentialsBase64 != "" || c.CredentialsFile != ""
}

type AirtableConfig struct {
	APIKey      string `env:"AIRTABLE_API_KEY"`
	BaseID      string `env:"AIRTABLE_BASE_ID"`
	UsersTable  string `env:"AIRTABLE_TABLE_NAME,   default=Users"`
	OrdersTable string `env:"AIRTABLE_ORDERS_TABLE, default=Orders"`
}

type XLSXConfig struct {
	Path string `env:"XLSX_PATH, default=users.xlsx"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME"`
	Password string `env:"ADMIN_PASSWORD"`
}

type OrdersConfig struct {
	TolerateProvisioningGap bool `env:"TOLERATE_STORE_PROVISIONING_GAP, default=true"`
	StrictTransitions       bool `env:"ORDER_STRICT_TRANSITIONS,        default=true"`
}

// MongoConfig and RedisConfig are optional; an empty address disables the
// audit trail and idempotency keys respectively.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=logistics"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// Development reports whether ENV selects console logging.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Env, "development")
}

// LoadWith reads configuration from l and resolves the store backend.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve normalises Backend. An explicit value must be known; otherwise
// Sheets credentials win over Airtable, and with neither present the local
// xlsx workbook is used.
func (c *Config) Resolve() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSheets, BackendAirtable, BackendXLSX, BackendMemory:
		return nil
	case "":
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Backend)
	}

	switch {
	case c.Sheets.hasCredentials() && c.Sheets.SpreadsheetID != "":
		c.Backend = BackendSheets
	case c.Airtable.APIKey != "" && c.Airtable.BaseID != "":
		c.Backend = BackendAirtable
	default:
		c.Backend = BackendXLSX
	}
	return nil
}

// Tables returns the users and orders table names for the selected backend.
func (c *Config) Tables() (users, orders string) {
	switch c.Backend {
	case BackendSheets:
		return c.Sheets.UsersRange, c.Sheets.OrdersRange
	case BackendAirtable:
		return c.Airtable.UsersTable, c.Airtable.OrdersTable
	default:
		return "Users", "Orders"
	}
}
