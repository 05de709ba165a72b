package cmd

import (
	"github.com/spf13/cobra"
)

func newReorderCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "reorder FILE SRC DST",
		Short: "Move a node to another position",
		Long: `Move the node at route SRC so that it ends up at route DST and save the
session. If both routes share the parent, the node is reordered among its
siblings; otherwise it is moved under the parent of DST.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := parseRoutes(args[1:]...)
			if err != nil {
				return err
			}
			src, dst := routes[0], routes[1]
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.ReorderAcross(src, dst); err != nil {
				return err
			}
			return saveSession(s, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of FILE")
	return cmd
}

var reorderCmd = newReorderCmd()

func init() {
	rootCmd.AddCommand(reorderCmd)
}
