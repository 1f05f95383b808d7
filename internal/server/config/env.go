package config

// Environment variables read by parseEnv.
const (
	EnvAESKey       = "QR_AES_KEY"
	EnvHMACKey      = "QR_HMAC_KEY"
	EnvMasterSecret = "QR_MASTER_SECRET"
	EnvS3User       = "QR_S3_USER"
	EnvS3Password   = "QR_S3_PASSWORD"
	EnvS3Bucket     = "QR_S3_BUCKET"
	EnvS3Region     = "QR_S3_REGION"
	EnvS3Endpoint   = "QR_S3_ENDPOINT"
	EnvLogLevel     = "QR_LOG_LEVEL"
)

// parseEnv overlays non-empty environment variables.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	for name, dst := range map[string]*string{
		EnvAESKey:       &config.AESKeyHex,
		EnvHMACKey:      &config.HMACKeyHex,
		EnvMasterSecret: &config.MasterSecretHex,
		EnvS3User:       &config.S3RootUser,
		EnvS3Password:   &config.S3RootPassword,
		EnvS3Bucket:     &config.S3Bucket,
		EnvS3Region:     &config.S3Region,
		EnvS3Endpoint:   &config.S3BaseEndpoint,
		EnvLogLevel:     &config.LogLevel,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
}
