package cmd

import (
	"github.com/spf13/cobra"
)

func newRegroupCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "regroup FILE MOVE GROUP",
		Short: "Move a node into a group",
		Long: `Move the node at route MOVE to the end of the children of the group at
route GROUP and save the session.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := parseRoutes(args[1:]...)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.MoveToGroup(routes[0], routes[1]); err != nil {
				return err
			}
			return saveSession(s, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of FILE")
	return cmd
}

var regroupCmd = newRegroupCmd()

func init() {
	rootCmd.AddCommand(regroupCmd)
}
