package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entitykeys/pkg/store"
)

// exampleSchemaYAML is written to the schema file by init when none exists.
const exampleSchemaYAML = `# entitykeys schema file
entities:
  - name: items
    version: 1
    properties:
      id: string
      data: number
      note: text
    partitionKey:
      entries:
        - constant: my-constant
        - property: id
    rowKey:
      entries:
        - property: data
`

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration, schema file and storage",
		Long: "Create the configuration directory and config.yaml, write an example\n" +
			"schema file if none exists, then attach and detach the backend once.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	if err := writeIfMissing(a.settings.schemaFile, exampleSchemaYAML); err != nil {
		return sysError(fmt.Errorf("write schema file: %w", err))
	}
	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}

	c, err := store.Open(a.settings.config, reg, store.Options{Logger: a.logger})
	if err != nil {
		return classify(fmt.Errorf("initialize storage: %w", err))
	}
	if err := c.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized entitykeys (config %s, backend %s)\n", a.configDir, a.settings.config.Backend)
	return nil
}

// writeIfMissing creates path with content unless it already exists.
func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
