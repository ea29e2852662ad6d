package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/voice-transcript/internal/config"
)

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables the tools read",
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := config.Usage()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usage)
			return nil
		},
	}
}
