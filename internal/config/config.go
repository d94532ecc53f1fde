package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the externally supplied runtime configuration: listening
// port, database, and the base URLs of the two sibling services (Caja for
// billing, Atención Clínica for clinical records).
type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	CajaBaseURL          string `mapstructure:"CAJA_BASE_URL"`
	CajaSaldoPacienteURL string `mapstructure:"CAJA_SALDO_PACIENTE_URL"`
	CajaTimeoutMS        int    `mapstructure:"CAJA_TIMEOUT_MS"`

	AtencionClinicaURL          string `mapstructure:"ATENCION_CLINICA_URL"`
	AtencionClinicaPacientesURL string `mapstructure:"ATENCION_CLINICA_PACIENTES_URL"`
	ClinicaTimeoutMS            int    `mapstructure:"CLINICA_TIMEOUT_MS"`

	OutboxMaxRetries int `mapstructure:"OUTBOX_MAX_RETRIES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CAJA_TIMEOUT_MS", 2000)
	v.SetDefault("CLINICA_TIMEOUT_MS", 5000)
	v.SetDefault("OUTBOX_MAX_RETRIES", 3)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"CORS_ORIGINS", "CAJA_BASE_URL", "CAJA_SALDO_PACIENTE_URL",
		"CAJA_TIMEOUT_MS", "ATENCION_CLINICA_URL",
		"ATENCION_CLINICA_PACIENTES_URL", "CLINICA_TIMEOUT_MS",
		"OUTBOX_MAX_RETRIES",
	} {
		v.BindEnv(key)
	}

	// The .env file is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CajaTimeout returns the HTTP client timeout for the Caja API.
func (c *Config) CajaTimeout() time.Duration {
	return time.Duration(c.CajaTimeoutMS) * time.Millisecond
}

// ClinicaTimeout returns the HTTP client timeout for the Atención Clínica API.
func (c *Config) ClinicaTimeout() time.Duration {
	return time.Duration(c.ClinicaTimeoutMS) * time.Millisecond
}
