package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/beanval/pkg/constraints"
)

func newConstraintsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "constraints",
		Short: "List the built-in constraint kinds",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			registry := constraints.NewRegistry()
			out := cmd.OutOrStdout()
			for _, kind := range registry.Kinds() {
				def, _ := registry.Lookup(kind)
				usage := kind
				if len(def.Params) > 0 {
					usage += ":" + strings.Join(def.Params, ",")
				}
				fmt.Fprintf(out, "%s %s\n", column(pathStyle, usage, 24), mutedStyle.Render(def.Message))
			}
		},
	}
}
