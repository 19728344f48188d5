package main

import (
	"context"
	"errors"
	"time"

	gormrepo "xiuxian/internal/adapter/repo/gorm"
	"xiuxian/internal/config"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var (
		dir  string
		seed bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed starter characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := config.ParseEnv()
			if err != nil {
				return err
			}
			if !env.UsesDatabase() {
				return errors.New("XIUXIAN_DB_DSN is required to migrate")
			}
			logger := newLogger(cmd.ErrOrStderr(), env.LogLevel)
			if dir == "" {
				dir = env.MigrationsDir
			}

			db, err := openDatabase(env)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			applied, err := gormrepo.ApplyMigrations(ctx, db, dir)
			if err != nil {
				return err
			}
			for _, v := range applied {
				cmd.Printf("applied %s\n", v)
			}
			if len(applied) == 0 {
				cmd.Println("schema up to date")
			}
			if !seed {
				return nil
			}

			balance, err := config.LoadBalance(env.BalanceFile)
			if err != nil {
				return err
			}
			return seedRoster(ctx, gormrepo.NewCharacterRepo(db), balance, time.Now().UTC(), logger)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default XIUXIAN_MIGRATIONS_DIR)")
	cmd.Flags().BoolVar(&seed, "seed", true, "create starter characters from the balance file")
	return cmd
}
