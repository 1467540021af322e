package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kickstart/client/internal/models"
	"github.com/kickstart/client/internal/realtime"
)

func newNotificationsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "List, watch, and manage notifications",
	}

	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "Fetch one page of notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			result, err := deps.Notify.FetchPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			for _, n := range result.Notifications {
				printNotification(cmd, n)
			}
			cmd.Printf("page %d/%d (%d total)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page to fetch")

	unread := &cobra.Command{
		Use:   "unread",
		Short: "Show the unread count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			count, err := deps.API.UnreadNotificationCount(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%d unread\n", count)
			return nil
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Stream notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.RequireSession()
			if err != nil {
				return err
			}

			down := make(chan error, 1)
			channel := realtime.NewChannel(realtime.Options{
				BaseURL: deps.Config.APIBaseURL,
				Handler: func(n models.Notification) {
					deps.Notify.Apply(n)
					printNotification(cmd, n)
				},
				OnDown: func(err error) {
					down <- err
				},
				MaxRetries:  deps.Config.StreamMaxRetries,
				MaxInterval: deps.Config.StreamMaxInterval,
				Logger:      deps.Logger,
			})

			channel.Start(session.User.ID, session.Token)
			defer channel.Stop()

			signalCh := make(chan os.Signal, 1)
			signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signalCh)

			cmd.Println("Watching for notifications. Press Ctrl-C to stop.")
			select {
			case <-cmd.Context().Done():
				return nil
			case <-signalCh:
				return nil
			case err := <-down:
				return err
			}
		},
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			return deps.Notify.MarkRead(cmd.Context(), args[0])
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			return deps.Notify.MarkAllRead(cmd.Context())
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			return deps.Notify.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(list, unread, watch, read, readAll, del)
	return cmd
}

func printNotification(cmd *cobra.Command, n models.Notification) {
	marker := " "
	if !n.IsRead {
		marker = "*"
	}
	title := n.Title
	if title == "" {
		title = string(n.Category)
	}
	cmd.Printf("%s [%s] %s: %s\n", marker, n.ID, title, n.Message)
	if n.Category == models.CategoryFriendRequest && n.Metadata.FriendRequestID != "" {
		cmd.Printf("    respond with: kickstart friends respond %s [--accept]\n", n.Metadata.FriendRequestID)
	}
}
