package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// schemaReport describes one configured entity for check.
type schemaReport struct {
	Name            string   `json:"name"`
	Version         int      `json:"version"`
	Properties      []string `json:"properties"`
	AddressedBy     []string `json:"addressed_by"`
	PartitionCovers []string `json:"partition_covers"`
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify hash support and validate the schema file",
		Long: "Check runs the hash capability probe and configures every entity in the\n" +
			"schema file. Any invalid key definition is reported and the command fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			reports := make([]schemaReport, 0, len(reg.Names()))
			for _, name := range reg.Names() {
				s, err := reg.Get(name)
				if err != nil {
					return sysError(err)
				}
				pk := s.PartitionCovers()
				reports = append(reports, schemaReport{
					Name:            name,
					Version:         s.Version(),
					Properties:      s.Mapping().Names(),
					AddressedBy:     s.Covers(),
					PartitionCovers: pk,
				})
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, reports)
			}
			fmt.Fprintf(out, "schema %s: %d entities OK\n", a.settings.schemaFile, len(reports))
			for _, r := range reports {
				fmt.Fprintf(out, "  %s v%d  partition(%s) address(%s)\n",
					r.Name, r.Version, strings.Join(r.PartitionCovers, ", "), strings.Join(r.AddressedBy, ", "))
			}
			return nil
		},
	}
}

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <entity> [name=value...]",
		Short: "Render the partition and row keys for property values",
		Example: `  entitykeys render items id=abc data=7
  entitykeys render items id=abc --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, props, err := a.schemaAndProps(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			pk, rk, err := s.Keys(props)
			if err != nil {
				return classify(err)
			}
			if a.flags.jsonMode {
				return printJSON(out, map[string]string{"entity": s.Name(), "partition_key": pk, "row_key": rk})
			}
			fmt.Fprintf(out, "partition: %s\nrow:       %s\n", pk, rk)
			return nil
		},
	}
}
