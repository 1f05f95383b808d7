package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/cidx"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/envelope"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/filex"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
)

func newImageCommand(a *App) *cobra.Command {
	var (
		outPath   string
		sizePx    int
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "image ENVELOPE|-",
		Short: "Render an existing envelope as a QR PNG",
		Long: `Image checks that the envelope is well formed and draws it. No keys are
needed, so the envelope is not opened.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.readEnvelope(args[0])
			if err != nil {
				return err
			}
			if _, err := envelope.Decode(env); err != nil {
				return err
			}

			r, err := qrimage.NewRenderer(a.opts.errorCorrection)
			if err != nil {
				return err
			}
			png, err := r.Render(env, sizePx)
			if err != nil {
				return err
			}
			if err := filex.WriteFile(outPath, png, overwrite); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "wrote %s (%d bytes)\n", outPath, len(png))
			return err
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "PNG file to write (required)")
	cmd.Flags().IntVar(&sizePx, "size", defaultImageSizePx, "image edge length in pixels")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newCIDCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cid FILE|-",
		Short: "Print the CIDv1 content address of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(a.in)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			cid, err := cidx.Compute(data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, cid)
			return err
		},
	}
}
