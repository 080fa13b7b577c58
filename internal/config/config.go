package config

import (
	"os"
	"strconv"

	"dropweight/internal/errors"
	"dropweight/ports"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Estimator EstimatorConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// CacheConfig selects the weight cache backing store. An empty DSN means the
// in-memory cache.
type CacheConfig struct {
	Driver string
	DSN    string
}

// EstimatorConfig holds default estimator options; requests may override them
type EstimatorConfig struct {
	MLE   ports.MLEOptions
	Bayes ports.BayesOptions
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    envOr("PORT", "8080"),
			GinMode: envOr("GIN_MODE", "release"),
		},
		Cache: CacheConfig{
			Driver: envOr("CACHE_DRIVER", "sqlite3"),
			DSN:    os.Getenv("CACHE_DSN"),
		},
		Estimator: EstimatorConfig{
			MLE:   ports.DefaultMLEOptions(),
			Bayes: ports.DefaultBayesOptions(),
		},
	}

	var err error
	if cfg.Estimator.MLE.LearningRate, err = envFloat("MLE_LEARNING_RATE", cfg.Estimator.MLE.LearningRate); err != nil {
		return nil, err
	}
	if cfg.Estimator.MLE.Iterations, err = envInt("MLE_ITERATIONS", cfg.Estimator.MLE.Iterations); err != nil {
		return nil, err
	}
	if cfg.Estimator.Bayes.ChainLength, err = envInt("BAYES_CHAIN_LENGTH", cfg.Estimator.Bayes.ChainLength); err != nil {
		return nil, err
	}
	if cfg.Estimator.Bayes.BurnIn, err = envInt("BAYES_BURN_IN", cfg.Estimator.Bayes.BurnIn); err != nil {
		return nil, err
	}
	if cfg.Estimator.Bayes.Thinning, err = envInt("BAYES_THINNING", cfg.Estimator.Bayes.Thinning); err != nil {
		return nil, err
	}
	if cfg.Estimator.Bayes.StepSize, err = envFloat("BAYES_STEP_SIZE", cfg.Estimator.Bayes.StepSize); err != nil {
		return nil, err
	}
	if cfg.Estimator.Bayes.PriorConcentration, err = envFloat("BAYES_PRIOR_CONCENTRATION", cfg.Estimator.Bayes.PriorConcentration); err != nil {
		return nil, err
	}

	if err := cfg.Estimator.MLE.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid MLE defaults in environment")
	}
	if err := cfg.Estimator.Bayes.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Bayesian defaults in environment")
	}
	if cfg.Cache.Driver != "sqlite3" && cfg.Cache.Driver != "postgres" {
		return nil, errors.New(errors.CodeConfig, "CACHE_DRIVER must be sqlite3 or postgres")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer", key)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be a number", key)
	}
	return f, nil
}
