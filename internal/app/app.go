// Package app wires the client engine into the kickstart CLI.
package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kickstart/client/internal/config"
	"github.com/kickstart/client/internal/logging"
)

// Run bootstraps the Kickstart client CLI.
func Run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)

	deps, err := buildDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	root := &cobra.Command{
		Use:           "kickstart",
		Short:         "Command-line client for the Kickstart platform",
		Version:       cfg.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newLoginCmd(deps),
		newSignupCmd(deps),
		newLogoutCmd(deps),
		newPasswordCmd(deps),
		newProfileCmd(deps),
		newUploadCmd(deps),
		newFriendsCmd(deps),
		newNotificationsCmd(deps),
		newChatCmd(deps),
		newThemeCmd(deps),
	)

	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
