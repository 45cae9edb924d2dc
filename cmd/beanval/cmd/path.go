package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msto63/beanval/pkg/path"
)

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path <property path>",
		Short: "Parse and describe a property path",
		Long: `Parses a property path such as "address.lines[1]" or "settings[mode]"
and prints its nodes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := path.Parse(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(p.String()))
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  %-3s %-20s %-8s %-12s %s", "#", "NAME", "INDEX", "KEY", "ITERABLE")))
			for i, n := range p.Nodes() {
				name, ok := n.Name()
				if !ok {
					name = "<bean>"
				}
				index := "-"
				if idx, ok := n.Index(); ok {
					index = strconv.Itoa(idx)
				}
				key := "-"
				if k, ok := n.Key(); ok {
					key = fmt.Sprint(k)
				}
				fmt.Fprintf(out, "  %-3d %s %-8s %-12s %t\n", i, column(pathStyle, name, 20), index, key, n.IsInIterable())
			}
			return nil
		},
	}
}
