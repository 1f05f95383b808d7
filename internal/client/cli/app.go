package cli

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/client/client"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/config"
)

const defaultImageSizePx = 300

// dialServer is a test seam for client.NewGRPCClient.
var dialServer = func(endpoint string) (client.Client, error) {
	return client.NewGRPCClient(endpoint)
}

type globalOptions struct {
	server          string
	aesKeyHex       string
	hmacKeyHex      string
	masterHex       string
	promptKeys      bool
	timeout         time.Duration
	errorCorrection string
	verbose         bool
}

// App holds the streams and global flags shared by every command.
type App struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	getenv func(string) string
	opts   globalOptions
}

func NewApp(in io.Reader, out, errOut io.Writer) *App {
	return &App{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		getenv: os.Getenv,
	}
}

func (a *App) logger() logging.Logger {
	if !a.opts.verbose {
		return logging.Nop{}
	}
	l, err := logging.NewText(a.errOut, "debug")
	if err != nil {
		return logging.Nop{}
	}
	return l
}

// withTimeout bounds one command run by the --timeout flag.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.opts.timeout)
}

// client returns a remote client when --server is set and a local one
// otherwise.
func (a *App) client() (client.Client, error) {
	if a.opts.server != "" {
		return dialServer(a.opts.server)
	}
	c, err := a.codec()
	if err != nil {
		return nil, err
	}
	return client.NewLocalClient(c, a.logger(), defaultImageSizePx), nil
}

// codec builds a codec from, in order of preference, flags, environment and
// terminal prompts. A master secret takes precedence over explicit keys.
func (a *App) codec() (*codec.Codec, error) {
	renderer, err := qrimage.NewRenderer(a.opts.errorCorrection)
	if err != nil {
		return nil, err
	}
	opts := []codec.Option{codec.WithLogger(a.logger()), codec.WithRenderer(renderer)}

	master := a.pick(a.opts.masterHex, config.EnvMasterSecret)
	if master != "" {
		secret, err := parseMaster(master)
		if err != nil {
			return nil, err
		}
		defer common.WipeByteArray(secret)
		return codec.NewFromMasterSecret(secret, opts...)
	}

	aesHex, err := a.keyOrPrompt(a.opts.aesKeyHex, config.EnvAESKey, "AES key (hex)")
	if err != nil {
		return nil, err
	}
	hmacHex, err := a.keyOrPrompt(a.opts.hmacKeyHex, config.EnvHMACKey, "HMAC key (hex)")
	if err != nil {
		return nil, err
	}
	return codec.NewFromHex(aesHex, hmacHex, opts...)
}

func (a *App) pick(flagValue, env string) string {
	if flagValue != "" {
		return flagValue
	}
	return a.getenv(env)
}

func (a *App) keyOrPrompt(flagValue, env, prompt string) (string, error) {
	if v := a.pick(flagValue, env); v != "" {
		return v, nil
	}
	if !a.opts.promptKeys {
		return "", fmt.Errorf("%w: set --aes-key/--hmac-key, %s/%s or --prompt-keys",
			common.ErrInvalidKeyMaterial, config.EnvAESKey, config.EnvHMACKey)
	}
	secret, err := GetSecret(a.errOut, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(secret)
	return string(secret), nil
}

func parseMaster(s string) ([]byte, error) {
	secret, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: master secret is not hex", common.ErrInvalidKeyMaterial)
	}
	return secret, nil
}

// readEnvelope returns arg, or one line from stdin when arg is "-".
func (a *App) readEnvelope(arg string) (string, error) {
	if arg != "-" {
		return strings.TrimSpace(arg), nil
	}
	return GetSimpleText(a.in, "", a.errOut)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
