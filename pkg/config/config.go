package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
		CORSOrigins  []string      `mapstructure:"CORS_ORIGINS"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		Path           string `mapstructure:"PATH"`
		AutoMigrate    bool   `mapstructure:"AUTO_MIGRATE"`
		Metrics        bool   `mapstructure:"METRICS"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	AccessControl struct {
		Model  string `mapstructure:"MODEL"`
		Policy string `mapstructure:"POLICY"`
	} `mapstructure:"ACCESS_CONTROL"`
	Scoring struct {
		BaseXP         int `mapstructure:"BASE_XP"`
		PerfectBonusXP int `mapstructure:"PERFECT_BONUS_XP"`
		LeaderboardTop int `mapstructure:"LEADERBOARD_TOP"`
	} `mapstructure:"SCORING"`
	Affiliate struct {
		WhatsappCS           string        `mapstructure:"WHATSAPP_CS"`
		CommissionPercentage float64       `mapstructure:"COMMISSION_PERCENTAGE"`
		DiscountPercentage   float64       `mapstructure:"DISCOUNT_PERCENTAGE"`
		MinWithdrawal        float64       `mapstructure:"MIN_WITHDRAWAL"`
		SettingsTTL          time.Duration `mapstructure:"SETTINGS_TTL"`
	} `mapstructure:"AFFILIATE"`
	Payment struct {
		ServerKey string `mapstructure:"SERVER_KEY"`
	} `mapstructure:"PAYMENT"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "fincheck")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("TLS.ENABLE", false)
	v.SetDefault("TLS.CERT_PATH", "")
	v.SetDefault("TLS.KEY_PATH", "")
	v.SetDefault("PYROSCOPE.ADDR", "")
	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("HTTP_SERVER.CORS_ORIGINS", []string{})
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "127.0.0.1")
	v.SetDefault("DATABASE.PORT", "5432")
	v.SetDefault("DATABASE.DBNAME", "fincheck")
	v.SetDefault("DATABASE.USER", "")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.PATH", "")
	v.SetDefault("DATABASE.METRICS", false)
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "UTC")
	v.SetDefault("DATABASE.AUTO_MIGRATE", true)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.POOL_SIZE", 10)
	v.SetDefault("REDIS.POOL_TIMEOUT", 4*time.Second)
	v.SetDefault("ACCESS_CONTROL.MODEL", "")
	v.SetDefault("ACCESS_CONTROL.POLICY", "")
	v.SetDefault("SCORING.BASE_XP", 10)
	v.SetDefault("SCORING.PERFECT_BONUS_XP", 25)
	v.SetDefault("SCORING.LEADERBOARD_TOP", 10)
	v.SetDefault("AFFILIATE.WHATSAPP_CS", "")
	v.SetDefault("AFFILIATE.COMMISSION_PERCENTAGE", 10)
	v.SetDefault("AFFILIATE.DISCOUNT_PERCENTAGE", 10)
	v.SetDefault("AFFILIATE.MIN_WITHDRAWAL", 50000)
	v.SetDefault("AFFILIATE.SETTINGS_TTL", 5*time.Minute)
	v.SetDefault("PAYMENT.SERVER_KEY", "")
}

// LoadConfig reads config.yaml from the working directory (optional) and lets
// environment variables override it, e.g. DATABASE_HOST for DATABASE.HOST.
func LoadConfig() (*Config, error) {
	return Load(".")
}

func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.TLS.Enable && (cfg.TLS.CertPath == "" || cfg.TLS.KeyPath == "") {
		return nil, fmt.Errorf("tls enabled but TLS.CERT_PATH or TLS.KEY_PATH not provided")
	}

	return &cfg, nil
}
