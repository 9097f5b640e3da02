package config

import (
	"time"

	"github.com/spf13/viper"
)

// Load reads .env plus environment overrides and applies defaults. Call once
// at startup before any package consults viper.
func Load() {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	viper.ReadInConfig() // missing .env is fine, env vars still apply

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("log.level", "LOG_LEVEL")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("payroll.factory_owner", "PAYROLL_FACTORY_OWNER")
	viper.BindEnv("payroll.default_fee_bps", "PAYROLL_DEFAULT_FEE_BPS")
	viper.BindEnv("payroll.default_advance_limit", "PAYROLL_DEFAULT_ADVANCE_LIMIT")
	viper.BindEnv("payroll.dev_token_address", "PAYROLL_DEV_TOKEN_ADDRESS")
	viper.BindEnv("payroll.export_currency", "PAYROLL_EXPORT_CURRENCY")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")

	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	viper.SetDefault("payroll.default_fee_bps", 50)
	viper.SetDefault("payroll.default_advance_limit", 0)
	viper.SetDefault("payroll.export_currency", "USD")

	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
}
