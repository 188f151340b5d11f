package config

import (
	"path/filepath"

	"github.com/jrsteele09/oa-client/internal/utils"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetStoreFile() string
	GetStorePassphrase() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisNamespace() string
}

type Store struct {
	file *FileConfig
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	return GetEnv("OA_STORE", utils.FirstNonEmpty(s.fc().Store.Backend, "file"))
}

func (s Store) GetStoreFile() string {
	if f := GetEnv("OA_STORE_FILE", s.fc().Store.File); f != "" {
		return f
	}
	return filepath.Join(EnvVars{file: s.file}.GetDataFolder(), "credentials.json")
}

// GetStorePassphrase enables sealing of the file store when non-empty.
func (s Store) GetStorePassphrase() string {
	return GetEnv("OA_STORE_PASSPHRASE", s.fc().Store.Passphrase)
}

func (s Store) GetRedisAddr() string {
	return GetEnv("OA_REDIS_ADDR", utils.FirstNonEmpty(s.fc().Store.Redis.Addr, "localhost:6379"))
}

func (s Store) GetRedisPassword() string {
	return GetEnv("OA_REDIS_PASSWORD", s.fc().Store.Redis.Password)
}

func (s Store) GetRedisDB() int {
	return int(getEnvAsInt("OA_REDIS_DB", int64(s.fc().Store.Redis.DB), 0))
}

func (s Store) GetRedisNamespace() string {
	return GetEnv("OA_REDIS_NAMESPACE", utils.FirstNonEmpty(s.fc().Store.Redis.Namespace, "oa"))
}

func (s Store) fc() *FileConfig {
	if s.file == nil {
		return &FileConfig{}
	}
	return s.file
}
