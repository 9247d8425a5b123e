package config

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int     `mapstructure:"PORT"`
	Env            string  `mapstructure:"APP_ENV"` // development | production
	LogLevel       string  `mapstructure:"LOG_LEVEL"`
	CORSOrigins    string  `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Database
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	TxTimeout      time.Duration `mapstructure:"TX_TIMEOUT"`
	TxMaxIntentos  int           `mapstructure:"TX_MAX_INTENTOS"`

	// Redis
	RedisURL         string        `mapstructure:"REDIS_URL"`
	ProductoCacheTTL time.Duration `mapstructure:"PRODUCTO_CACHE_TTL"`

	// Workers
	WorkerPoolSize          int `mapstructure:"WORKER_POOL_SIZE"`
	NotificacionMaxIntentos int `mapstructure:"NOTIFICACION_MAX_INTENTOS"`

	// Auth (verification only)
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// Kafka
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"` // comma separated, empty disables publishing
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	// SMTP
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// Business
	PDFStoragePath      string `mapstructure:"PDF_STORAGE_PATH"`
	PlataformaUsuarioID string `mapstructure:"PLATAFORMA_USUARIO_ID"`
	ComisionPlataforma  string `mapstructure:"COMISION_PLATAFORMA"`
	MonedaDefault       string `mapstructure:"MONEDA_DEFAULT"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Optional .env file for local development; a missing file is fine
	_ = v.ReadInConfig()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "PLATAFORMA_USUARIO_ID", "KAFKA_BROKERS", "SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM"} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("TX_TIMEOUT", "5s")
	v.SetDefault("TX_MAX_INTENTOS", 3)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("PRODUCTO_CACHE_TTL", "30s")
	v.SetDefault("WORKER_POOL_SIZE", 3)
	v.SetDefault("NOTIFICACION_MAX_INTENTOS", 3)
	v.SetDefault("KAFKA_TOPIC", "tiendas.pedidos")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("PDF_STORAGE_PATH", "/tmp/tiendas/pdfs")
	v.SetDefault("COMISION_PLATAFORMA", "0.10")
	v.SetDefault("MONEDA_DEFAULT", "COP")
}

// Validate checks the required keys and the business values that are parsed
// later on.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL es requerido"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET es requerido"))
	}
	if _, err := uuid.Parse(c.PlataformaUsuarioID); err != nil {
		errs = append(errs, errors.New("PLATAFORMA_USUARIO_ID debe ser un UUID"))
	}
	tasa, err := decimal.NewFromString(c.ComisionPlataforma)
	if err != nil || tasa.IsNegative() || tasa.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, errors.New("COMISION_PLATAFORMA debe ser un decimal en [0, 1)"))
	}
	if c.TxTimeout <= 0 {
		errs = append(errs, errors.New("TX_TIMEOUT debe ser positivo"))
	}
	return errors.Join(errs...)
}

// PlataformaID returns the platform account that receives PlatformFee commissions.
func (c *Config) PlataformaID() uuid.UUID {
	id, _ := uuid.Parse(c.PlataformaUsuarioID)
	return id
}

// TasaComision returns the platform fee rate.
func (c *Config) TasaComision() decimal.Decimal {
	tasa, err := decimal.NewFromString(c.ComisionPlataforma)
	if err != nil {
		return decimal.NewFromFloat(0.10)
	}
	return tasa
}

// Brokers splits KAFKA_BROKERS.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Origins splits CORS_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
