package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fluxyoga/batchcaption/internal/backends"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the supported captioning backends",
		Run: func(cmd *cobra.Command, args []string) {
			for _, b := range backends.Supported() {
				marker := " "
				if b == types.DefaultBackend {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, b)
			}
			fmt.Printf("\nStyles: %s\n", strings.Join(styleNames(), ", "))
		},
	}
}

func styleNames() []string {
	styles := types.AllStyles()
	names := make([]string, len(styles))
	for i, s := range styles {
		names[i] = string(s)
	}
	return names
}
