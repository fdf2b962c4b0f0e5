package config

import "time"

// StorageConfig configures the S3-compatible bucket that holds catch photos.
type StorageConfig struct {
    Enabled   bool
    Endpoint  string
    AccessKey string
    SecretKey string
    Bucket    string
    UseSSL    bool
    // PublicBaseURL overrides the scheme://endpoint/bucket prefix of returned
    // photo URIs, e.g. when the bucket sits behind a CDN.
    PublicBaseURL string
    MaxUploadSize int64
    URLExpiry     time.Duration
}

// LoadStorageConfig reads MINIO_* variables.  Photo upload is disabled unless
// MINIO_ENDPOINT is set.
func LoadStorageConfig() StorageConfig {
    endpoint := envStr("MINIO_ENDPOINT", "")
    return StorageConfig{
        Enabled:       endpoint != "",
        Endpoint:      endpoint,
        AccessKey:     envStr("MINIO_ACCESS_KEY", "minioadmin"),
        SecretKey:     envStr("MINIO_SECRET_KEY", "minioadmin"),
        Bucket:        envStr("MINIO_BUCKET", "fishtrack-photos"),
        UseSSL:        envBool("MINIO_USE_SSL", false),
        PublicBaseURL: envStr("MINIO_PUBLIC_BASE_URL", ""),
        MaxUploadSize: int64(envInt("PHOTO_MAX_BYTES", 10<<20)),
        URLExpiry:     envDur("PHOTO_URL_EXPIRY", 7*24*time.Hour),
    }
}
