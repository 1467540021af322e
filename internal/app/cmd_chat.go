package app

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kickstart/client/internal/chat"
	"github.com/kickstart/client/internal/models"
)

func newChatCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Conversations and messaging",
	}

	var page int
	conversations := &cobra.Command{
		Use:   "conversations",
		Short: "List conversations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			result, err := deps.API.Conversations(cmd.Context(), page)
			if err != nil {
				return err
			}
			for _, c := range result.Conversations {
				name := c.OtherParticipant.FullName
				if name == "" {
					name = c.OtherParticipant.Email
				}
				cmd.Printf("[%s] %s: %s\n", c.RoomID, name, c.LastMessage.Body)
			}
			cmd.Printf("page %d/%d (%d total)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}
	conversations.Flags().IntVar(&page, "page", 1, "page to fetch")

	var historyPage int
	history := &cobra.Command{
		Use:   "history <room-id>",
		Short: "Show a room's message history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.RequireSession()
			if err != nil {
				return err
			}
			result, err := deps.API.Messages(cmd.Context(), args[0], historyPage)
			if err != nil {
				return err
			}
			for _, m := range result.Messages {
				who := m.SenderID
				if m.SenderID == session.User.ID {
					who = "me"
				}
				cmd.Printf("%s  %s: %s\n", m.CreatedAt.Format(time.RFC3339), who, m.Body)
			}
			return nil
		},
	}
	history.Flags().IntVar(&historyPage, "page", 1, "page to fetch")

	var (
		roomID string
		wait   time.Duration
	)
	send := &cobra.Command{
		Use:   "send <receiver-id> <message>",
		Short: "Send a message and wait for the server echo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := deps.RequireSession()
			if err != nil {
				return err
			}
			receiverID, body := args[0], args[1]

			chatStore := chat.NewStore(session.User.ID)
			chatStore.SetActiveConversation(roomID, receiverID)
			chatSession := chat.NewSession(chatStore, deps.Store, session.User.ID, deps.Logger)

			socket, err := chatSession.Connect(cmd.Context(), chat.SocketOptions{
				BaseURL: deps.Config.APIBaseURL,
				Token:   session.Token,
				Logger:  deps.Logger,
			})
			if err != nil {
				return err
			}
			defer socket.Close()

			pending, err := chatSession.Send(roomID, receiverID, body, models.MessageText)
			if err != nil {
				return err
			}

			deadline := time.After(wait)
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if !hasPending(chatStore, pending.ID) {
						cmd.Println("Delivered.")
						return nil
					}
				case <-deadline:
					cmd.Println("Sent; no acknowledgment yet. It will be retried on the next connection.")
					return nil
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
		},
	}
	send.Flags().StringVar(&roomID, "room", "", "room id, when continuing an existing conversation")
	send.Flags().DurationVar(&wait, "wait", 5*time.Second, "how long to wait for the server echo")

	outbox := &cobra.Command{
		Use:   "outbox",
		Short: "Show journaled unacknowledged messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := deps.RequireSession(); err != nil {
				return err
			}
			entries, err := deps.Store.Outbox()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("Outbox is empty.")
				return nil
			}
			for _, entry := range entries {
				cmd.Printf("[%s] to %s (%d retries): %s\n", entry.ID, entry.ReceiverID, entry.Retries, entry.Body)
			}
			return nil
		},
	}

	cmd.AddCommand(conversations, history, send, outbox)
	return cmd
}

func hasPending(store *chat.Store, id string) bool {
	for _, p := range store.Pending() {
		if p.ID == id {
			return true
		}
	}
	return false
}
