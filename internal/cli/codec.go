package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entitykeys/pkg/keys"
)

func newEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "encode <value>",
		Short:       "Escape a string for use as a key",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded := keys.EncodeStringKey(args[0])
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"value": args[0], "key": encoded})
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
}

func newDecodeCmd(a *app) *cobra.Command {
	var compiled bool
	cmd := &cobra.Command{
		Use:   "decode <key>",
		Short: "Reverse the key escaping of a string key",
		Long: "Decode an escaped string key back to its original value. With --compiled,\n" +
			"split a compiled key into its segments and print each as hex.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if compiled {
				segs, err := keys.SplitKey(args[0])
				if err != nil {
					return userError(err)
				}
				hexSegs := make([]string, len(segs))
				for i, s := range segs {
					hexSegs[i] = hex.EncodeToString(s)
				}
				if a.flags.jsonMode {
					return printJSON(out, map[string]any{"key": args[0], "segments": hexSegs})
				}
				for _, s := range hexSegs {
					fmt.Fprintln(out, s)
				}
				return nil
			}

			decoded, err := keys.DecodeStringKey(args[0])
			if err != nil {
				return userError(err)
			}
			if a.flags.jsonMode {
				return printJSON(out, map[string]string{"key": args[0], "value": decoded})
			}
			fmt.Fprintln(out, decoded)
			return nil
		},
	}
	cmd.Flags().BoolVar(&compiled, "compiled", false, "treat the argument as a compiled key and print its segments")
	return cmd
}
