package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "put <entity> name=value...",
		Short:   "Create or replace an entity",
		Example: `  entitykeys put items id=abc data=7 note="first item"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(args, func(t types.Table, props types.Properties) error {
				e, err := t.Put(cmd.Context(), props)
				if err != nil {
					return classify(err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), e)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s %s/%s etag %s\n", e.Table, e.PartitionKey, e.RowKey, e.ETag)
				return nil
			})
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <entity> name=value...",
		Short:   "Load an entity by the properties its keys cover",
		Example: `  entitykeys get items id=abc data=7`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(args, func(t types.Table, props types.Properties) error {
				e, err := t.Get(cmd.Context(), props)
				if err != nil {
					return classify(err)
				}
				return printJSON(cmd.OutOrStdout(), e)
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list <entity> name=value...",
		Short:   "List a partition in row key order",
		Example: `  entitykeys list items id=abc`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(args, func(t types.Table, props types.Properties) error {
				list, err := t.List(cmd.Context(), props)
				if err != nil {
					return classify(err)
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					if list == nil {
						list = []*types.Entity{}
					}
					return printJSON(out, list)
				}
				for _, e := range list {
					fmt.Fprintf(out, "%s\t%s\t%s\n", e.RowKey, e.ETag, e.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
				}
				return nil
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <entity> name=value...",
		Short:   "Remove an entity",
		Example: `  entitykeys delete items id=abc data=7`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(args, func(t types.Table, props types.Properties) error {
				if err := t.Delete(cmd.Context(), props); err != nil {
					return classify(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// withTable parses args, attaches the backend, runs fn against the entity
// table and detaches again.
func (a *app) withTable(args []string, fn func(types.Table, types.Properties) error) error {
	reg, s, props, err := a.schemaAndProps(args)
	if err != nil {
		return err
	}
	t, closeFn, err := a.openTable(reg, s.Name())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(t, props)
}
