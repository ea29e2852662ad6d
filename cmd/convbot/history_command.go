package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/voice-transcript/internal/middleware"
	"github.com/capitalize-ai/voice-transcript/internal/model"
	"github.com/capitalize-ai/voice-transcript/internal/repository/sqlstore"
	"github.com/capitalize-ai/voice-transcript/internal/service"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var page, limit, width int
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "history <conversation-id>",
		Short: "Print persisted messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conversationID := args[0]
			if err := middleware.ValidateConversationID(conversationID); err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, err := ctx.logger()
			if err != nil {
				return err
			}

			storeCfg := sqlstore.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN, MaxOpenConns: 1}
			if driver != "" {
				storeCfg.Driver = driver
			}
			if dsn != "" {
				storeCfg.DSN = dsn
			}

			repo, err := sqlstore.Open(cmd.Context(), storeCfg)
			if err != nil {
				return fmt.Errorf("open message store: %w", err)
			}
			defer repo.Close()

			resp, err := service.NewMessageService(repo, log).GetMessages(cmd.Context(), conversationID, page, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Messages) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Time", "Role", "Sender", "Content"},
				historyRows(resp),
				width,
			))
			fmt.Fprintf(out, "page %d, %d of %d messages", resp.Page, len(resp.Messages), resp.Total)
			if resp.HasMore {
				fmt.Fprintf(out, ", older messages on page %d", resp.Page+1)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to show, 1 is the newest")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultPageLimit, "Messages per page")
	cmd.Flags().IntVar(&width, "width", 60, "Wrap content to this width (0 disables)")
	cmd.Flags().StringVar(&driver, "store-driver", "", "Override STORE_DRIVER")
	cmd.Flags().StringVar(&dsn, "store-dsn", "", "Override STORE_DSN")

	return cmd
}

func historyRows(resp *model.ListMessagesResponse) [][]string {
	// Pages count back from the newest message; number rows from the oldest.
	offset := resp.Total - resp.Page*resp.Limit + 1
	if offset < 1 {
		offset = 1
	}

	rows := make([][]string, 0, len(resp.Messages))
	for i, m := range resp.Messages {
		rows = append(rows, []string{
			strconv.Itoa(offset + i),
			m.CreatedAt.Format("2006-01-02 15:04:05"),
			string(m.Role),
			m.SenderID,
			m.Content,
		})
	}
	return rows
}
