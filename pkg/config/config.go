package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "COURSELOOP"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "COURSELOOP_APP_ENV"
	EnvPort     = "COURSELOOP_APP_PORT"
	EnvDBDSN    = "COURSELOOP_DB_DSN"
	EnvDBHost   = "COURSELOOP_DB_HOST"
	EnvDBUser   = "COURSELOOP_DB_USER"
	EnvDBName   = "COURSELOOP_DB_NAME"
	EnvRedisURL = "COURSELOOP_REDIS_URL"

	EnvJWTSecret  = "COURSELOOP_JWT_SECRET"
	EnvJWTIssuer  = "COURSELOOP_JWT_ISSUER"
	EnvJWTExpMins = "COURSELOOP_JWT_EXPIRATION_MINUTES"

	EnvVNPayTmnCode    = "COURSELOOP_VNPAY_TMN_CODE"
	EnvVNPayHashSecret = "COURSELOOP_VNPAY_HASH_SECRET"
	EnvVNPayPaymentURL = "COURSELOOP_VNPAY_PAYMENT_URL"

	EnvMoMoPartnerCode = "COURSELOOP_MOMO_PARTNER_CODE"
	EnvMoMoAccessKey   = "COURSELOOP_MOMO_ACCESS_KEY"
	EnvMoMoSecretKey   = "COURSELOOP_MOMO_SECRET_KEY"
	EnvMoMoEndpoint    = "COURSELOOP_MOMO_ENDPOINT"

	EnvFrontendBaseURL = "COURSELOOP_FRONTEND_BASE_URL"
	EnvBackendBaseURL  = "COURSELOOP_BACKEND_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	VNPay        VNPayConfig
	MoMo         MoMoConfig
	Mail         MailConfig
	URLs         URLConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COURSELOOP_APP_ENV" required:"true"`
	Port         string `envconfig:"COURSELOOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COURSELOOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COURSELOOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COURSELOOP_DB_DSN"`
	Driver string `envconfig:"COURSELOOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COURSELOOP_DB_HOST"`
	LegacyPort     int    `envconfig:"COURSELOOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COURSELOOP_DB_USER"`
	LegacyPassword string `envconfig:"COURSELOOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"COURSELOOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"COURSELOOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COURSELOOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COURSELOOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COURSELOOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COURSELOOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COURSELOOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COURSELOOP_REDIS_ADDR"`
	Password     string        `envconfig:"COURSELOOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"COURSELOOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COURSELOOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COURSELOOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COURSELOOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COURSELOOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COURSELOOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"COURSELOOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"COURSELOOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"COURSELOOP_JWT_EXPIRATION_MINUTES" required:"true"`
}

// VNPayConfig carries merchant credentials for the VNPay redirect flow.
type VNPayConfig struct {
	TmnCode    string `envconfig:"COURSELOOP_VNPAY_TMN_CODE"`
	HashSecret string `envconfig:"COURSELOOP_VNPAY_HASH_SECRET"`
	PaymentURL string `envconfig:"COURSELOOP_VNPAY_PAYMENT_URL" default:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
	BankCode   string `envconfig:"COURSELOOP_VNPAY_BANK_CODE" default:"NCB"`
}

// MoMoConfig carries partner credentials for the MoMo captureWallet flow.
// Absent credentials degrade to a structured gateway error from the link
// builder, never a startup failure.
type MoMoConfig struct {
	PartnerCode string        `envconfig:"COURSELOOP_MOMO_PARTNER_CODE"`
	PartnerName string        `envconfig:"COURSELOOP_MOMO_PARTNER_NAME" default:"CourseLoop"`
	StoreID     string        `envconfig:"COURSELOOP_MOMO_STORE_ID" default:"CourseLoopStore"`
	AccessKey   string        `envconfig:"COURSELOOP_MOMO_ACCESS_KEY"`
	SecretKey   string        `envconfig:"COURSELOOP_MOMO_SECRET_KEY"`
	Endpoint    string        `envconfig:"COURSELOOP_MOMO_ENDPOINT" default:"https://test-payment.momo.vn/v2/gateway/api/create"`
	Timeout     time.Duration `envconfig:"COURSELOOP_MOMO_TIMEOUT" default:"30s"`
}

func (m MoMoConfig) Configured() bool {
	return m.PartnerCode != "" && m.AccessKey != "" && m.SecretKey != "" && m.Endpoint != ""
}

type MailConfig struct {
	SendgridAPIKey string `envconfig:"COURSELOOP_SENDGRID_API_KEY"`
	FromEmail      string `envconfig:"COURSELOOP_FROM_EMAIL" default:"noreply@courseloop.dev"`
	FromName       string `envconfig:"COURSELOOP_FROM_NAME" default:"CourseLoop"`
}

type URLConfig struct {
	FrontendBase string `envconfig:"COURSELOOP_FRONTEND_BASE_URL" required:"true"`
	BackendBase  string `envconfig:"COURSELOOP_BACKEND_BASE_URL" required:"true"`
}

// ReturnURL is the browser-facing page both providers redirect back to.
func (u URLConfig) ReturnURL() string {
	return strings.TrimRight(u.FrontendBase, "/") + "/payment/return"
}

// MoMoIPNURL is the server-to-server callback registered with MoMo.
func (u URLConfig) MoMoIPNURL() string {
	return strings.TrimRight(u.BackendBase, "/") + "/payment/momo/ipn"
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"COURSELOOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
