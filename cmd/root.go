package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chatterm/internal/app/api"
	"chatterm/internal/app/chat"
	"chatterm/internal/app/db"
	"chatterm/internal/app/events"
	"chatterm/internal/app/friends"
	"chatterm/internal/app/session"
	"chatterm/internal/configs"
	"chatterm/internal/pkg/auth/jwt"
	"chatterm/internal/pkg/errs"
	"chatterm/internal/pkg/logx"
	"chatterm/internal/ui"
)

// options holds the command-line overrides of the configuration.
type options struct {
	env     string
	api     string
	push    string
	dataDir string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "chatterm",
		Short: "A terminal chat client",
		Long: `chatterm is a full-screen terminal client for the chat backend.

Sign in or register, browse your conversations, chat in real time, and manage
friends. The session is kept in the data directory between runs.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClient(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.api, "api", "", "REST API base URL (overrides API_BASE_URL)")
	flags.StringVar(&opts.push, "push", "", "push channel URL (overrides PUSH_URL)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory for the session database and log (overrides CHATTERM_DATA_DIR)")
	flags.StringVar(&opts.env, "env", "", "environment: development or production (overrides ENVIRONMENT)")

	root.AddCommand(newLogoutCmd(opts), newWhoamiCmd(opts))
	return root
}

// loadConfig reads the environment and YAML overlay, then applies the flags.
func loadConfig(opts *options) (*configs.AppConfig, error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}

	if opts.env != "" {
		cfg.Environment = opts.env
	}
	if opts.api != "" {
		cfg.APIBaseURL = opts.api
	}
	if opts.push != "" {
		cfg.PushURL = opts.push
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and starts logging to the data directory.
// The returned closer flushes the log file.
func setup(opts *options) (*configs.AppConfig, io.Closer, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, err := logx.OpenLogFile(cfg.LogFilePath())
	if err != nil {
		return nil, nil, err
	}
	logx.InitGlobalLogger(cfg.IsDevelopment(), logFile)

	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("api", cfg.APIBaseURL).
		Str("push", cfg.PushURL).
		Str("data_dir", cfg.DataDir).
		Dur("typing_idle", cfg.TypingIdle).
		Msg("Configuration loaded successfully")

	return cfg, logFile, nil
}

// sessionStack is the credential database with the API client and session manager on top.
type sessionStack struct {
	db      *sql.DB
	client  *api.Client
	manager *session.Manager
}

func openSessions(ctx context.Context, cfg *configs.AppConfig) (*sessionStack, error) {
	sqlDB, err := db.Open(cfg.SessionDBPath())
	if err != nil {
		return nil, err
	}

	store := session.NewStore(sqlDB)
	client, err := api.New(cfg.APIBaseURL, store)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	s := &sessionStack{db: sqlDB, client: client, manager: session.NewManager(store, client)}

	if _, err := s.manager.Restore(ctx); err != nil {
		switch {
		case errs.Is(err, errs.ErrNotLoggedIn):
		case errs.Is(err, errs.ErrSessionExpired):
			logx.Info("Stored session expired, sign-in required")
		default:
			sqlDB.Close()
			return nil, err
		}
	}

	return s, nil
}

func runClient(parent context.Context, opts *options) error {
	cfg, logFile, err := setup(opts)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.db.Close()

	bridge := ui.NewBridge()
	store := chat.NewStore()

	channel := events.NewChannel(cfg.PushURL, events.NewRouter(store, bridge.Alert), bridge.ConnState)
	unwatch := stack.manager.Watch(bridge.Session)
	defer unwatch()

	binder := events.Bind(ctx, stack.manager, channel, store)
	defer binder.Stop()

	composer := chat.NewComposer(store, channel, func() int64 {
		sess, _ := stack.manager.Current()
		return sess.User.ID
	}, cfg.TypingIdle)
	defer composer.Close()

	model := ui.New(ctx, ui.Deps{
		Sessions:   stack.manager,
		Store:      store,
		Fetcher:    chat.NewFetcher(stack.client, store),
		Composer:   composer,
		Friends:    friends.NewPanel(stack.client),
		Connection: binder,
	})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	go bridge.Run(ctx, program.Send)

	logx.Info("chatterm started")
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logx.Error(err, "UI stopped with an error")
		return err
	}

	logx.Info("chatterm stopped")
	return nil
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logFile, err := setup(opts)
			if err != nil {
				return err
			}
			defer logFile.Close()

			stack, err := openSessions(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer stack.db.Close()

			if err := stack.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logFile, err := setup(opts)
			if err != nil {
				return err
			}
			defer logFile.Close()

			stack, err := openSessions(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer stack.db.Close()

			out := cmd.OutOrStdout()
			sess, ok := stack.manager.Current()
			if !ok {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}

			fmt.Fprintf(out, "%s <%s> (id %d)\n", sess.User.Username, sess.User.Email, sess.User.ID)
			if claims, err := jwt.ParseUnverified(sess.Token); err == nil {
				if exp, ok := claims.Expiry(); ok {
					fmt.Fprintf(out, "Session expires %s\n", time.Unix(exp, 0).Format(time.RFC1123))
				}
			}
			return nil
		},
	}
}
