package main

import (
	"context"
	"encoding/json"

	"xiuxian/internal/app/progression"
	"xiuxian/internal/config"

	"github.com/spf13/cobra"
)

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <character-id>",
		Short: "Print the breakthrough odds of a character as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := config.ParseEnv()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), env.LogLevel)
			balance, err := config.LoadBalance(env.BalanceFile)
			if err != nil {
				return err
			}
			d, err := buildDeps(ctx, env, balance, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			uc := progression.UseCase{Chars: d.Chars}
			out, err := uc.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
