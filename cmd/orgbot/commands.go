package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orgbot/internal/app"
	"orgbot/internal/config"
	"orgbot/internal/storage"
	logx "orgbot/pkg/logx"
)

type rootOpts struct {
	cfgPath string
	envFile string
}

func newRootCmd() *cobra.Command {
	o := &rootOpts{}
	root := &cobra.Command{
		Use:           "orgbot",
		Short:         "Telegram assistant for members, shared events and reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadDotEnv(o.envFile)
		},
	}
	root.PersistentFlags().StringVarP(&o.cfgPath, "config", "c", os.Getenv("ORGBOT_CONFIG"), "path to config file (json or yaml); empty uses env and defaults")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(newRunCmd(o), newPromoteCmd(o), newSeedAdminCmd(o))
	return root
}

func newRunCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(o.cfgPath)
			if err != nil {
				return err
			}
			if err := a.Start(ctx); err != nil {
				_ = a.Stop(context.Background(), app.StopFatalError)
				return fmt.Errorf("start: %w", err)
			}

			reason := app.StopSignal
			select {
			case <-ctx.Done():
			case <-a.Done():
				reason = app.StopFatalError
			}
			stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = a.Stop(stopCtx, reason)
			if reason == app.StopFatalError {
				return a.Err()
			}
			return nil
		},
	}
}

func newPromoteCmd(o *rootOpts) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant admin rights to a member by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, _, err := app.OpenStore(o.cfgPath, cliLogger())
			if err != nil {
				return err
			}
			defer st.Close()

			m, err := app.Promote(cmd.Context(), st, id)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("member id=%d not found", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id=%d) is now an admin\n", m.FullName, m.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 1, "member id")
	return cmd
}

func newSeedAdminCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the configured admin member if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := cliLogger()
			st, cfg, set, err := app.OpenStore(o.cfgPath, log)
			if err != nil {
				return err
			}
			defer st.Close()

			if cfg.Admin.Handle == 0 {
				return errors.New("admin.handle is not set (ORGBOT_ADMIN_HANDLE or ADMIN_TELEGRAM_ID)")
			}
			m, created, err := app.SeedAdmin(cmd.Context(), st, cfg.Admin, set, log)
			if err != nil {
				return err
			}
			state := "already present"
			if created {
				state = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (id=%d, handle=%d) %s\n", m.FullName, m.ID, m.Handle, state)
			return nil
		},
	}
}

func cliLogger() logx.Logger { return logx.NewConsole("warn") }
