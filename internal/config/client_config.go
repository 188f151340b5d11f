package config

import (
	"time"

	"github.com/jrsteele09/oa-client/internal/utils"
)

type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetRefreshThreshold() time.Duration
	GetRefreshPath() string
	GetLoginPath() string
	GetNoticeDuration() time.Duration
	GetUploadChunkSize() int64
}

type Client struct {
	file *FileConfig
}

var _ ClientConfig = Client{}

func (c Client) GetRequestTimeout() time.Duration {
	return getEnvAsDuration("OA_TIMEOUT", c.fc().Client.Timeout, 10*time.Second)
}

// GetRefreshThreshold is how close to expiry a token may get before a
// background refresh is started.
func (c Client) GetRefreshThreshold() time.Duration {
	return getEnvAsDuration("OA_REFRESH_THRESHOLD", c.fc().Client.RefreshThreshold, 300*time.Second)
}

func (c Client) GetRefreshPath() string {
	return GetEnv("OA_REFRESH_PATH", utils.FirstNonEmpty(c.fc().Client.RefreshPath, "/api/auth/refresh"))
}

func (c Client) GetLoginPath() string {
	return GetEnv("OA_LOGIN_PATH", utils.FirstNonEmpty(c.fc().Client.LoginPath, "/api/totp/login"))
}

func (c Client) GetNoticeDuration() time.Duration {
	return getEnvAsDuration("OA_NOTICE_DURATION", c.fc().Client.NoticeDuration, 3*time.Second)
}

func (c Client) GetUploadChunkSize() int64 {
	return getEnvAsInt("OA_CHUNK_SIZE", c.fc().Client.ChunkSize, 5*1024*1024)
}

func (c Client) fc() *FileConfig {
	if c.file == nil {
		return &FileConfig{}
	}
	return c.file
}
