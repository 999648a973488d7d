package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kyc-review-api/internal/logging"
	"kyc-review-api/internal/models"
	"kyc-review-api/internal/realtime"
	"kyc-review-api/internal/reviewclient"
	"kyc-review-api/internal/verification"
)

var rootCmd = &cobra.Command{
	Use:   "kycreview",
	Short: "Review peer KYC verification tasks",
	Long: `kycreview lists the KYC verification tasks assigned to you, shows the
documents behind each one and records approve or reject decisions.

Log in once and export the token:
  export KYCREVIEW_TOKEN=$(kycreview login --username me --password secret)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch viper.GetString("output") {
		case outputTable, outputJSON, outputYAML:
			return nil
		}
		return fmt.Errorf("unknown output format %q", viper.GetString("output"))
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("KYCREVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8008", "API base URL")
	rootCmd.PersistentFlags().String("token", "", "bearer token from 'kycreview login'")
	rootCmd.PersistentFlags().Duration("timeout", verification.DefaultTimeout, "per-request timeout")
	rootCmd.PersistentFlags().StringP("output", "o", outputTable, "output format: table, json or yaml")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(decisionCmd(models.ActionApprove))
	rootCmd.AddCommand(decisionCmd(models.ActionReject))
	rootCmd.AddCommand(watchCmd())
}

// newLogger writes to stderr so command output stays pipeable.
func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logging.Formatter{SystemName: "kycreview"})
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = logrus.WarnLevel
	}
	l.SetLevel(level)
	return l
}

func newClient(log logrus.FieldLogger) *reviewclient.Client {
	c := reviewclient.New(viper.GetString("server"), log)
	c.Token = viper.GetString("token")
	if d := viper.GetDuration("timeout"); d > 0 {
		c.Timeout = d
	}
	return c
}

// withSession builds a reviewer session over the API and runs fn with it.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, c *reviewclient.Client, s *verification.Session) error) error {
	log := newLogger()
	c := newClient(log)
	if c.Token == "" {
		return errors.New("no token: run 'kycreview login' and set KYCREVIEW_TOKEN or --token")
	}
	fetcher, err := verification.NewFetcher(c, log, c.Timeout)
	if err != nil {
		return err
	}
	s, err := verification.NewSession(c, fetcher, verification.Options{
		CacheTTL:     30 * time.Second,
		WriteTimeout: c.Timeout,
		Log:          log,
	})
	if err != nil {
		return err
	}
	return fn(cmd.Context(), c, s)
}

func parseTaskID(arg string) (uint, error) {
	n, err := strconv.ParseUint(arg, 10, strconv.IntSize)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return uint(n), nil
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(newLogger())
			token, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List pending verification tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, _ *reviewclient.Client, s *verification.Session) error {
				tasks, err := s.PendingTasks(ctx)
				if err != nil {
					return err
				}
				return renderTasks(cmd.OutOrStdout(), viper.GetString("output"), tasks)
			})
		},
	}
}

func viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <taskId>",
		Short: "Show the documents behind a verification task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, _ *reviewclient.Client, s *verification.Session) error {
				task, err := s.FindTask(ctx, id)
				if err != nil {
					return err
				}
				rec, err := s.ViewDocuments(ctx, task)
				if err != nil {
					return err
				}
				return renderRecord(cmd.OutOrStdout(), viper.GetString("output"), rec)
			})
		},
	}
}

func decisionCmd(outcome models.KYCAction) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   string(outcome) + " <taskId>",
		Short: strings.ToUpper(string(outcome[:1])) + string(outcome[1:]) + " a verification task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, _ *reviewclient.Client, s *verification.Session) error {
				// validate before any network call
				if err := (verification.Decision{TaskID: id, Outcome: outcome, RejectionReason: reason}).Validate(); err != nil {
					return err
				}
				task, err := s.FindTask(ctx, id)
				if err != nil {
					return err
				}
				updated, err := s.RecordDecision(ctx, task, outcome, reason)
				if err != nil {
					return err
				}
				return renderTasks(cmd.OutOrStdout(), viper.GetString("output"), []models.Task{updated})
			})
		},
	}
	if outcome == models.ActionReject {
		cmd.Flags().StringVar(&reason, "reason", "", "why the documents are rejected (required)")
		_ = cmd.MarkFlagRequired("reason")
	}
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream task events and reprint the pending list on changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, c *reviewclient.Client, s *verification.Session) error {
				dialer := websocket.Dialer{HandshakeTimeout: c.Timeout}
				conn, _, err := dialer.DialContext(ctx, c.WebSocketURL(), nil)
				if err != nil {
					return fmt.Errorf("connect realtime: %w", err)
				}
				defer conn.Close()

				go func() {
					<-ctx.Done()
					_ = conn.Close()
				}()

				out := cmd.OutOrStdout()
				for {
					_, frame, err := conn.ReadMessage()
					if err != nil {
						if ctx.Err() != nil {
							return nil
						}
						return err
					}
					var evt realtime.Event
					if err := json.Unmarshal(frame, &evt); err != nil {
						continue
					}
					fmt.Fprintln(out, formatEvent(evt))
					if !strings.HasPrefix(evt.Type, "task_") {
						continue
					}
					s.Refresh()
					tasks, err := s.PendingTasks(ctx)
					if err != nil {
						return err
					}
					if err := renderTasks(out, viper.GetString("output"), tasks); err != nil {
						return err
					}
				}
			})
		},
	}
}
