package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskhub/internal/chat"
	"github.com/p-blackswan/taskhub/internal/models"
)

var messageHeaders = []string{"TIME", "FROM", "TO", "MESSAGE"}

func messageRow(m models.ChatMessage) []string {
	from := m.SenderUsername
	if from == "" {
		from = "#" + id(m.SenderID)
	}
	to := ""
	switch {
	case m.ProjectID != 0:
		to = "project #" + id(m.ProjectID)
	case m.ReceiverID != 0:
		to = "#" + id(m.ReceiverID)
	}
	ts := m.Timestamp
	if ts == "" {
		ts = m.CreatedAt
	}
	return []string{ts, from, to, m.Content}
}

func newChatCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "chat",
		Short:             "Real-time chat commands",
		PersistentPreRunE: guarded(app, "/chat"),
	}
	cmd.AddCommand(newChatListenCmd(app))
	cmd.AddCommand(newChatSendCmd(app))
	cmd.AddCommand(newChatHistoryCmd(app))
	cmd.AddCommand(newChatConversationsCmd(app))
	cmd.AddCommand(newChatMembersCmd(app))
	return cmd
}

// connectChat opens the shared transport with connection toasts attached.
func (a *App) connectChat(cmd *cobra.Command) (func(), error) {
	off := a.chat.OnStatus(chat.NotifyStatus(a.notifier))
	if err := a.chat.Connect(cmd.Context()); err != nil {
		off()
		return nil, err
	}
	return off, nil
}

func newChatListenCmd(app *App) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Stream chat messages until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			inbox := chat.NewInbox(app.cfg.InboxCapacity, app.session, app.logger)
			inbox.Attach(app.chat)
			defer inbox.Detach()

			unregister := app.chat.OnMessage(func(msg models.ChatMessage) {
				if projectID != 0 && msg.ProjectID != projectID {
					return
				}
				if app.JSON {
					_ = app.writeJSON(msg)
					return
				}
				row := messageRow(msg)
				fmt.Fprintf(app.out, "[%s] %s → %s: %s\n", row[0], row[1], row[2], row[3])
			})
			defer unregister()

			off, err := app.connectChat(cmd)
			if err != nil {
				return err
			}
			defer off()

			<-cmd.Context().Done()
			app.chat.Disconnect()

			if !app.JSON {
				for _, key := range inbox.Keys() {
					if conv, ok := inbox.Conversation(key); ok {
						fmt.Fprintf(app.errOut, "%s: %d messages\n", key, conv.Len())
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Only print messages for this project")
	return cmd
}

func newChatSendCmd(app *App) *cobra.Command {
	var projectID, userID int64

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message to a project room or a user",
		Example: `  taskhub chat send --project 3 "standup in 5"
  taskhub chat send --user 7 "got a minute?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (projectID == 0) == (userID == 0) {
				return fmt.Errorf("exactly one of --project or --user is required")
			}
			content := strings.TrimSpace(strings.Join(args, " "))
			if content == "" {
				return fmt.Errorf("message is empty")
			}

			off, err := app.connectChat(cmd)
			if err != nil {
				return err
			}
			defer off()
			defer app.chat.Disconnect()

			if projectID != 0 {
				room := chat.NewProjectRoom(app.chat, app.session, projectID)
				defer room.Close()
				return room.Send(content)
			}
			private := chat.NewPrivateChat(app.services.Chat, app.chat, app.session, app.notifier, app.logger)
			defer private.Close()
			if err := private.LoadMessages(cmd.Context(), userID); err != nil {
				return err
			}
			return private.Send(content)
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Project room")
	cmd.Flags().Int64Var(&userID, "user", 0, "Recipient user ID")
	return cmd
}

func newChatHistoryCmd(app *App) *cobra.Command {
	var projectID, userID int64
	var page, size int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the stored history of a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (projectID == 0) == (userID == 0) {
				return fmt.Errorf("exactly one of --project or --user is required")
			}
			var msgs []models.ChatMessage
			if userID != 0 {
				private := chat.NewPrivateChat(app.services.Chat, app.chat, app.session, app.notifier, app.logger)
				defer private.Close()
				if err := private.LoadMessages(cmd.Context(), userID); err != nil {
					return err
				}
				msgs = private.Messages()
			} else {
				var err error
				msgs, err = app.services.Chat.ProjectHistory(cmd.Context(), projectID, page, size)
				if err != nil {
					app.notifier.Error("Failed to load chat history")
					return err
				}
			}
			rows := make([][]string, 0, len(msgs))
			for _, m := range msgs {
				rows = append(rows, messageRow(m))
			}
			return app.writeTable(msgs, messageHeaders, rows)
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Project room")
	cmd.Flags().Int64Var(&userID, "user", 0, "Other user ID")
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page index (project rooms)")
	cmd.Flags().IntVar(&size, "size", 20, "Page size (project rooms)")
	return cmd
}

func newChatConversationsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "conversations",
		Short: "List private and project conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			private, err := app.services.Chat.Conversations(cmd.Context())
			if err != nil {
				return err
			}
			rooms, err := app.services.Chat.ProjectConversations(cmd.Context())
			if err != nil {
				return err
			}
			if app.JSON {
				return app.writeJSON(map[string]any{"private": private, "projects": rooms})
			}
			rows := make([][]string, 0, len(private)+len(rooms))
			for _, c := range private {
				rows = append(rows, []string{chat.PrivateKey(c.UserID), c.Name, c.LastMessage, c.LastMessageTime})
			}
			for _, r := range rooms {
				rows = append(rows, []string{chat.ProjectKey(r.ProjectID), r.ProjectName + " (" + strconv.Itoa(r.MemberCount) + ")", r.LastMessage, r.LastMessageTime})
			}
			return app.writeTable(nil, []string{"KEY", "NAME", "LAST MESSAGE", "AT"}, rows)
		},
	}
}

func newChatMembersCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List users you can message",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.services.Chat.Members(cmd.Context(), search)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{id(u.ID), u.Username, u.FullName, u.Email})
			}
			return app.writeTable(users, []string{"ID", "USERNAME", "NAME", "EMAIL"}, rows)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter by name")
	return cmd
}
