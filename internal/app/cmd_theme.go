package app

import (
	"github.com/spf13/cobra"

	"github.com/kickstart/client/internal/theme"
)

func newThemeCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the color scheme",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(string(deps.Theme.Mode()))
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <light|dark>",
		Short: "Switch to a specific mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Theme.SetMode(theme.Mode(args[0])); err != nil {
				return err
			}
			cmd.Printf("Theme set to %s.\n", args[0])
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Flip between light and dark",
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := deps.Theme.Toggle()
			if err != nil {
				return err
			}
			cmd.Printf("Theme set to %s.\n", string(next))
			return nil
		},
	}

	cmd.AddCommand(show, set, toggle)
	return cmd
}
