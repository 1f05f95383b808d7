// Package config handles configuration for the server component: defaults,
// a JSON file overlay, environment variables and command-line flags, applied
// in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
)

// Config holds runtime settings for the QR codec server.
//
// Key material is given either as two hex keys (AESKeyHex, HMACKeyHex) or as
// one hex master secret from which both keys are derived. Keys are normally
// supplied through the environment rather than the JSON file.
type Config struct {
	EndpointAddrGRPC string
	EndpointAddrHTTP string

	AESKeyHex       string
	HMACKeyHex      string
	MasterSecretHex string

	DefaultTTL           time.Duration
	ImageSizePx          int
	ErrorCorrection      string
	StrictContentAddress bool

	PublishImages     bool
	PresignExpiration time.Duration
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates Config with development defaults. No keys are set.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DefaultTTL = record.DefaultTTL
	c.ImageSizePx = qrimage.DefaultSizePx
	c.ErrorCorrection = "low"
	c.PresignExpiration = 15 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "qrcodes"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	if c.MasterSecretHex == "" && (c.AESKeyHex == "" || c.HMACKeyHex == "") {
		errs = append(errs, errors.New("either a master secret or both the aes and hmac keys must be set"))
	}
	if c.DefaultTTL < 0 {
		errs = append(errs, fmt.Errorf("default ttl %s is negative", c.DefaultTTL))
	}
	if c.ImageSizePx <= 0 || c.ImageSizePx > qrimage.MaxSizePx {
		errs = append(errs, fmt.Errorf("image size %d outside 1..%d", c.ImageSizePx, qrimage.MaxSizePx))
	}
	if _, err := qrimage.ParseLevel(c.ErrorCorrection); err != nil {
		errs = append(errs, err)
	}
	if c.PublishImages && c.S3Bucket == "" {
		errs = append(errs, errors.New("publishing images requires an s3 bucket"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the environment, then command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, lookupEnv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
