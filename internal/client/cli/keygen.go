package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/cryptox"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/config"
)

func newKeygenCommand(a *App) *cobra.Command {
	var master bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print fresh random keys as environment assignments",
		Example: `  # Keys for a local codec
  eval "$(qrctl keygen)"

  # A single master secret instead
  qrctl keygen --master`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := []string{config.EnvAESKey, config.EnvHMACKey}
			if master {
				names = []string{config.EnvMasterSecret}
			}
			for _, name := range names {
				key, err := cryptox.GenerateKey()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "%s=%s\n", name, hex.EncodeToString(key))
				common.WipeByteArray(key)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&master, "master", false, "generate one master secret instead of two keys")
	return cmd
}
