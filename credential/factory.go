package credential

import (
	"context"
	"fmt"

	"github.com/jrsteele09/oa-client/internal/config"
)

// FromConfig builds the store selected by the configuration.
func FromConfig(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.GetStoreBackend() {
	case "memory":
		return NewInMemoryStore(), nil
	case "file", "":
		return NewFileStore(cfg.GetStoreFile(), cfg.GetStorePassphrase()), nil
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			Addr:      cfg.GetRedisAddr(),
			Password:  cfg.GetRedisPassword(),
			DB:        cfg.GetRedisDB(),
			Namespace: cfg.GetRedisNamespace(),
		})
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.GetStoreBackend())
	}
}
