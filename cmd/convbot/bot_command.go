package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-transcript/internal/bot"
	"github.com/capitalize-ai/voice-transcript/internal/llm"
	"github.com/capitalize-ai/voice-transcript/internal/middleware"
	natsclient "github.com/capitalize-ai/voice-transcript/internal/nats"
	"github.com/capitalize-ai/voice-transcript/internal/transport"
)

func newBotCommand(ctx *commandContext) *cobra.Command {
	var userID, participantID, language, provider string
	var conversational bool
	var wordDelay time.Duration

	cmd := &cobra.Command{
		Use:   "bot <conversation-id>",
		Short: "Play a conversation from stdin onto the realtime transport",
		Long: `Each input line is a spoken user utterance answered by the bot.
Lines starting with "/text " are typed text, "/asset <url>" announces an audio file,
and "/quit" ends the call. The call is disconnected when input ends.`,
		Args: cobra.ExactArgs(1),
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
			defer log.Sync()

			if provider == "" {
				provider = cfg.LLM.Default
			}
			client, err := llm.Select(llm.Provider(provider), cfg.LLM.AnthropicAPIKey, cfg.LLM.OpenAIAPIKey)
			if err != nil {
				return err
			}

			nc, err := natsclient.Connect(cmd.Context(), natsclient.Config{
				URL:      cfg.NATS.URL,
				Name:     "convbot",
				CAFile:   cfg.NATS.CAFile,
				CertFile: cfg.NATS.CertFile,
				KeyFile:  cfg.NATS.KeyFile,
				Token:    cfg.NATS.Token,
			}, log)
			if err != nil {
				return fmt.Errorf("connect to NATS: %w", err)
			}
			defer nc.Close()

			streams := natsclient.NewStreamManager(nc, natsclient.StreamConfig{
				Name:          cfg.Ingest.Stream,
				SubjectPrefix: cfg.Ingest.SubjectPrefix,
				MaxAge:        cfg.Ingest.MaxAge,
			})
			if _, err := streams.EnsureStream(cmd.Context()); err != nil {
				return err
			}

			b := bot.New(bot.Config{
				ConversationID: conversationID,
				UserID:         userID,
				ParticipantID:  participantID,
				LanguageCode:   language,
				Model:          cfg.LLM.Model,
				SystemPrompt:   cfg.LLM.SystemPrompt,
				Conversational: conversational,
				WordDelay:      wordDelay,
			}, transport.NewPublisher(nc.Conn(), cfg.NATS.RealtimePrefix, conversationID), streams, client, log)

			log.Info("bot ready",
				zap.String("conversation_id", conversationID),
				zap.String("provider", client.Name()),
			)

			runErr := converse(cmd, b, cmd.InOrStdin())
			if err := b.Disconnect(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&userID, "user", "user-1", "User id sent with transcripts and batches")
	cmd.Flags().StringVar(&participantID, "participant", "bot-1", "AI participant id")
	cmd.Flags().StringVar(&language, "language", "en", "Language code of the conversation")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: anthropic, openai or echo (defaults to DEFAULT_LLM)")
	cmd.Flags().BoolVar(&conversational, "conversational", false, "Also emit spoken (TTS) events for replies")
	cmd.Flags().DurationVar(&wordDelay, "word-delay", 120*time.Millisecond, "Pause between simulated words")

	return cmd
}

// conversation is the part of the bot converse drives.
type conversation interface {
	Utter(ctx context.Context, text string) (*bot.Turn, error)
	Answer(ctx context.Context, text string) (*bot.Turn, error)
	SendAsset(fileURL string) error
}

func converse(cmd *cobra.Command, b conversation, in io.Reader) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		var (
			turn *bot.Turn
			err  error
		)
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case strings.HasPrefix(line, "/asset "):
			err = b.SendAsset(strings.TrimSpace(strings.TrimPrefix(line, "/asset ")))
		case strings.HasPrefix(line, "/text "):
			turn, err = b.Answer(ctx, strings.TrimPrefix(line, "/text "))
		default:
			turn, err = b.Utter(ctx, line)
		}
		if err != nil {
			return err
		}
		if turn != nil {
			fmt.Fprintf(out, "bot> %s\n", turn.Reply)
		}
	}
	return scanner.Err()
}
