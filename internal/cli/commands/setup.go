package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askdb/internal/config"
	"github.com/leapstack-labs/askdb/internal/llm"
	"github.com/leapstack-labs/askdb/internal/output"
	"github.com/leapstack-labs/askdb/internal/session"
)

// configKey and loggerKey store command-scoped dependencies in context.
type configKey struct{}
type loggerKey struct{}

// ConfigKey returns the context key the cli package uses to inject config.
func ConfigKey() interface{} { return configKey{} }

// LoggerKey returns the context key the cli package uses to inject the logger.
func LoggerKey() interface{} { return loggerKey{} }

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Model:        config.DefaultModel,
		DatabasePath: config.DefaultDatabase,
		Format:       config.DefaultFormat,
	}
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Session  *session.Session
	Renderer *output.Renderer
}

// NewCommandContext creates a session and renderer from the command's
// config. The returned cleanup closes the session and must be called.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig(cmd.Context())
	logger := getLogger(cmd.Context())

	sess, err := session.New(cmd.Context(), session.Config{
		DatabasePath: cfg.DatabasePath,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.APIKey != "" {
		if err := installSynthesizer(sess, cfg, logger); err != nil {
			_ = sess.Close()
			return nil, nil, err
		}
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Format(cfg.Format))

	cleanup := func() { _ = sess.Close() }
	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Session:  sess,
		Renderer: r,
	}, cleanup, nil
}

// installSynthesizer wires the model provider into the session using the
// current config and key.
func installSynthesizer(sess *session.Session, cfg *config.Config, logger *slog.Logger) error {
	client, err := llm.NewClient(llm.ClientConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		TableName: sess.TableName(),
	}, logger)
	if err != nil {
		return err
	}
	sess.SetSynthesizer(client)
	return nil
}
