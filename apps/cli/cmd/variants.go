package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/httprepro/packages/batch"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List batch variant presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			bold := color.New(color.Bold)
			dim := color.New(color.Faint)
			out := cmd.OutOrStdout()

			for _, v := range batch.Variants() {
				bold.Fprintf(out, "%-20s", v.Name)
				fmt.Fprintf(out, " %s\n", v.Description)
				forward := "method, headers, body"
				if !v.ForwardOptions {
					forward = "URL only"
				}
				dim.Fprintf(out, "%-20s strategy=%s mode=%s forwards=%s\n", "", v.Strategy, v.Mode, forward)
			}
		},
	}
}
