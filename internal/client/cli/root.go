package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the qrctl command tree around a.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "qrctl",
		Short:         "Mint and verify encrypted, time-bounded QR envelopes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	f := root.PersistentFlags()
	f.StringVar(&a.opts.server, "server", "", "address of a qrcodec gRPC server; local keys are used when empty")
	f.StringVar(&a.opts.aesKeyHex, "aes-key", "", "hex AES-256 key (defaults to $QR_AES_KEY)")
	f.StringVar(&a.opts.hmacKeyHex, "hmac-key", "", "hex HMAC-SHA-256 key (defaults to $QR_HMAC_KEY)")
	f.StringVar(&a.opts.masterHex, "master-secret", "", "hex master secret to derive both keys from (defaults to $QR_MASTER_SECRET)")
	f.BoolVar(&a.opts.promptKeys, "prompt-keys", false, "read missing keys from the terminal")
	f.DurationVar(&a.opts.timeout, "timeout", 30*time.Second, "timeout for one command")
	f.StringVar(&a.opts.errorCorrection, "error-correction", "low", "QR error correction level: low, medium, high or highest")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log codec events to stderr")

	root.AddCommand(
		newKeygenCommand(a),
		newMintCommand(a),
		newMintMultiCommand(a),
		newVerifyCommand(a),
		newValidateCommand(a),
		newImageCommand(a),
		newCIDCommand(a),
	)
	return root
}

// Execute runs qrctl with args.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	root := NewRootCommand(NewApp(in, out, errOut))
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
