package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration values from environment variables.
// A variable that is unset or empty leaves the current value untouched.
// The server loads a .env file before this runs, so variables defined
// there are visible here too.
func parseEnv(config *Config) {
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	setString("ADDRESS", &config.Addr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SECRET_KEY", &config.SecretKey)
	setDuration("ACCESS_TOKEN_VALIDITY_DURATION", &config.AccessTokenValidityDuration)
	setDuration("REFRESH_TOKEN_VALIDITY_DURATION", &config.RefreshTokenValidityDuration)
	setString("STORAGE_BACKEND", &config.StorageBackend)
	setString("STORAGE_ROOT", &config.StorageRoot)
	setString("S3_ROOT_USER", &config.S3RootUser)
	setString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("S3_BUCKET", &config.S3Bucket)
	setString("S3_REGION", &config.S3Region)
	setString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	setString("ACCEPTED_TYPES", &config.AcceptedTypes)
	setString("ENCRYPTION_SECRET", &config.EncryptionSecret)
	setString("ENCRYPTION_SALT", &config.EncryptionSalt)
	setString("SHORTENER_URL", &config.ShortenerURL)
	setString("PUBLIC_BASE_URL", &config.PublicBaseURL)

	if v := os.Getenv("MAX_QUOTA_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxQuotaBytes = n
	}
}
