package config

import (
	"flag"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/flagx"
)

// parseFlags overlays command-line flags.
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-w string   HTTP bind address (e.g. ":8080")
//	-k string   AES key, 64 hex chars
//	-m string   HMAC key, 64 hex chars
//	-x string   master secret, hex; replaces -k and -m
//	-t int      default ttl, minutes
//	-i int      default image size, px
//	-l string   error correction: low, medium, high, highest
//	-s          reject content addresses that are not CIDs
//	-P          publish rendered images to S3
//	-u, -p      S3 user and password
//	-b, -g, -e  S3 bucket, region and base endpoint
//	-v string   log level
//
// Keys passed as flags are visible in the process list; prefer the
// environment outside of development.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args,
		[]string{"-a", "-w", "-k", "-m", "-x", "-t", "-i", "-l", "-u", "-p", "-b", "-g", "-e", "-v"},
		"-s", "-P")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.AESKeyHex, "k", config.AESKeyHex, "AES-256 key (hex)")
	fs.StringVar(&config.HMACKeyHex, "m", config.HMACKeyHex, "HMAC-SHA-256 key (hex)")
	fs.StringVar(&config.MasterSecretHex, "x", config.MasterSecretHex, "master secret (hex)")

	ttl := fs.Int("t", int(config.DefaultTTL.Minutes()), "default ttl (in minutes)")

	fs.IntVar(&config.ImageSizePx, "i", config.ImageSizePx, "default image size (px)")
	fs.StringVar(&config.ErrorCorrection, "l", config.ErrorCorrection, "QR error correction level")
	fs.BoolVar(&config.StrictContentAddress, "s", config.StrictContentAddress, "require CID content addresses")
	fs.BoolVar(&config.PublishImages, "P", config.PublishImages, "publish images to S3")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.DefaultTTL = time.Duration(*ttl) * time.Minute
	return nil
}
