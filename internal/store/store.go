// Package store selects the model artifact backend from configuration.
package store

import (
	"fmt"

	"stockforecast/config"
	"stockforecast/internal/artifact"
	redisstore "stockforecast/internal/store/redis"
)

// OpenModelStore returns the artifact store named by cfg.ModelStore
// ("file" or "redis") and a function releasing its resources.
func OpenModelStore(cfg *config.Config) (artifact.Store, func() error, error) {
	switch cfg.ModelStore {
	case "", "file":
		return artifact.NewFileStore(cfg.ModelPath), func() error { return nil }, nil
	case "redis":
		s, err := redisstore.NewModelStore(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.ModelKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown model store %q (want file or redis)", cfg.ModelStore)
	}
}
