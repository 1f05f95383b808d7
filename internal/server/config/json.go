package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/flagx"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "90m" style
// strings or integer nanoseconds. Pointer fields distinguish "absent" from
// the zero value so a partial file overrides only what it names.
type JsonConfig struct {
	EndpointAddrGRPC     *string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP     *string         `json:"endpoint_addr_http"`
	AESKeyHex            *string         `json:"aes_key_hex"`
	HMACKeyHex           *string         `json:"hmac_key_hex"`
	MasterSecretHex      *string         `json:"master_secret_hex"`
	DefaultTTL           *timex.Duration `json:"default_ttl"`
	ImageSizePx          *int            `json:"image_size_px"`
	ErrorCorrection      *string         `json:"error_correction"`
	StrictContentAddress *bool           `json:"strict_content_address"`
	PublishImages        *bool           `json:"publish_images"`
	PresignExpiration    *timex.Duration `json:"presign_expiration"`
	S3RootUser           *string         `json:"s3_root_user"`
	S3RootPassword       *string         `json:"s3_root_password"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3Region             *string         `json:"s3_region"`
	S3BaseEndpoint       *string         `json:"s3_base_endpoint"`
	LogLevel             *string         `json:"log_level"`
	LogFormat            *string         `json:"log_format"`
}

// parseJson overlays the file given with -c or -config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.AESKeyHex, c.AESKeyHex)
	setString(&config.HMACKeyHex, c.HMACKeyHex)
	setString(&config.MasterSecretHex, c.MasterSecretHex)
	if c.DefaultTTL != nil {
		config.DefaultTTL = c.DefaultTTL.Duration
	}
	if c.ImageSizePx != nil {
		config.ImageSizePx = *c.ImageSizePx
	}
	setString(&config.ErrorCorrection, c.ErrorCorrection)
	if c.StrictContentAddress != nil {
		config.StrictContentAddress = *c.StrictContentAddress
	}
	if c.PublishImages != nil {
		config.PublishImages = *c.PublishImages
	}
	if c.PresignExpiration != nil {
		config.PresignExpiration = c.PresignExpiration.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
