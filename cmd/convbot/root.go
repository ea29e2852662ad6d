package main

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/voice-transcript/internal/config"
	"github.com/capitalize-ai/voice-transcript/pkg/logger"
)

type commandContext struct {
	logLevel string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*logger.Logger, error) {
	level := c.logLevel
	if level == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		level = cfg.Log.Level
	}
	return logger.New(level)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "convbot",
		Short:         "Reference voice bot and transcript tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (defaults to LOG_LEVEL)")

	rootCmd.AddCommand(newBotCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newEnvCommand())

	return rootCmd
}
