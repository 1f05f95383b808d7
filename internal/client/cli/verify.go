package cli

import (
	"github.com/spf13/cobra"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
)

func newVerifyCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify ENVELOPE|-",
		Short: "Open an envelope and print its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.readEnvelope(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			rec, err := c.Verify(ctx, env)
			if err != nil {
				return err
			}
			return a.printJSON(api.VerifyResponse{Record: rec})
		},
	}
}

func newValidateCommand(a *App) *cobra.Command {
	var (
		expectItem  string
		expectChain string
	)
	cmd := &cobra.Command{
		Use:   "validate ENVELOPE|-",
		Short: "Check a scanned envelope against the expected item and chain",
		Long: `Validate opens the envelope like verify and then compares identifiers.
Identifier mismatches are reported in the result and do not fail the command;
tampered, undecryptable or expired envelopes do.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.readEnvelope(args[0])
			if err != nil {
				return err
			}

			req := api.ValidateRequest{Envelope: env}
			if cmd.Flags().Changed("expect-item") {
				id := record.ItemID(expectItem)
				req.ExpectedItemID = &id
			}
			if cmd.Flags().Changed("expect-chain") {
				id, err := codec.ParseChainID(expectChain)
				if err != nil {
					return err
				}
				req.ExpectedChainID = &id
			}

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.ValidateScan(ctx, req)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
	cmd.Flags().StringVar(&expectItem, "expect-item", "", "item id the scanner expects")
	cmd.Flags().StringVar(&expectChain, "expect-chain", "", "chain id the scanner expects")
	return cmd
}
