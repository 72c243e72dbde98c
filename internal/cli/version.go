package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the entitykeys release version.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/entitykeys"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the entitykeys version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "entitykeys v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
