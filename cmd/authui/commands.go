package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-authui/internal/config"
	"github.com/goliatone/go-authui/internal/transport"
	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/orchestrator"
	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/renderers/tui"
	"github.com/goliatone/go-authui/pkg/session"
	"github.com/goliatone/go-authui/pkg/submit"
)

const maxLoginAttempts = 3

func newKratosClient(cfg config.Config, logger log.FieldLogger) (*kratos.Client, error) {
	return kratos.New(cfg.Kratos.PublicURL,
		kratos.WithTimeout(cfg.Kratos.Timeout),
		kratos.WithLogger(logger),
	)
}

// NewServeCommand starts the HTTP server.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the self-service pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Override the configured listen address",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Override the configured submit mode (post, async)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen := cmd.String("listen"); listen != "" {
				cfg.Server.Listen = listen
			}
			if mode := cmd.String("mode"); mode != "" {
				cfg.Submit.Mode = mode
			}

			client, err := newKratosClient(cfg, logger)
			if err != nil {
				return err
			}
			srv, err := transport.New(cfg, client, transport.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					logger.WithError(err).Warn("close server")
				}
			}()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
}

// NewRenderCommand renders a container fixture to stdout.
func NewRenderCommand() *cli.Command {
	return &cli.Command{
		Name:    "render",
		Aliases: []string{"r"},
		Usage:   "Render a ui container or flow document as HTML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "container",
				Usage:    "Container or flow document (JSON or YAML)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Submit mode (post, async)",
				Value: "post",
			},
			&cli.StringFlag{
				Name:  "flow-kind",
				Usage: "Flow kind used for async form actions",
				Value: string(kratos.FlowLogin),
			},
			&cli.StringFlag{
				Name:  "flow-id",
				Usage: "Flow id used for async form actions",
			},
			&cli.StringFlag{
				Name:  "preset",
				Usage: "JSON preset patching labels and messages",
			},
			&cli.StringSliceFlag{
				Name:  "hidden",
				Usage: "Extra hidden form field as name=value (repeatable)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (stdout if empty)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mode, err := submit.ParseMode(cmd.String("mode"))
			if err != nil {
				return err
			}
			kind, ok := kratos.ParseFlowKind(cmd.String("flow-kind"))
			if !ok {
				return fmt.Errorf("unknown flow kind %q", cmd.String("flow-kind"))
			}
			flowID := cmd.String("flow-id")
			if mode == submit.ModeAsync && flowID == "" {
				return errors.New("--flow-id is required in async mode")
			}

			hidden, err := parseHiddenFields(cmd.StringSlice("hidden"))
			if err != nil {
				return err
			}

			selector, err := transport.NewThemeSelector("")
			if err != nil {
				return err
			}
			options := []orchestrator.Option{orchestrator.WithThemeSelector(selector)}
			if path := cmd.String("preset"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read preset: %w", err)
				}
				preset, err := orchestrator.NewJSONPresetTransformer(data)
				if err != nil {
					return err
				}
				options = append(options, orchestrator.WithTransformer(preset))
			}

			html, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
				Path:          cmd.String("container"),
				RenderOptions: submit.Options(mode, render.FlowRef{Kind: string(kind), ID: flowID}, render.RenderOptions{HiddenFields: hidden}),
			})
			if err != nil {
				return err
			}

			if out := cmd.String("output"); out != "" {
				if err := os.WriteFile(out, html, 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Form written to %s\n", out)
				return nil
			}
			_, err = fmt.Fprintln(os.Stdout, string(html))
			return err
		},
	}
}

// parseHiddenFields turns name=value pairs into render hidden fields.
func parseHiddenFields(pairs []string) (map[string]string, error) {
	fields := make([]render.HiddenField, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid hidden field %q, want name=value", pair)
		}
		fields = append(fields, render.Hidden(name, value))
	}
	return render.MergeHiddenFields(nil, fields...), nil
}

// NewLoginCommand signs in from the terminal through an API flow.
func NewLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in or register from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "flow",
				Usage: "Flow to run (login, registration)",
				Value: string(kratos.FlowLogin),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			kind, ok := kratos.ParseFlowKind(cmd.String("flow"))
			if !ok || (kind != kratos.FlowLogin && kind != kratos.FlowRegistration) {
				return fmt.Errorf("unsupported flow %q", cmd.String("flow"))
			}
			client, err := newKratosClient(cfg, logger)
			if err != nil {
				return err
			}

			store := session.NewStore()
			defer store.Close()
			unsubscribe := store.OnChange(func(state session.State) {
				logger.WithFields(log.Fields{
					"active":     state.Active,
					"expires_at": state.ExpiresAt,
				}).Debug("session state changed")
			})
			defer unsubscribe()

			result, err := runTerminalFlow(ctx, client, kind, tui.New(tui.WithPromptDriver(tui.NewSurveyDriver(os.Stderr))))
			if err != nil {
				return err
			}
			if !session.FromKratos(ctx, store, result.Session, time.Now()) {
				return errors.New("the identity service did not return an active session")
			}

			state := store.State()
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"session_id":    result.Session.ID,
				"session_token": result.SessionToken,
				"expires_at":    state.ExpiresAt,
			})
		},
	}
}

// runTerminalFlow prompts for the flow's fields and submits them. A rejected
// submission is shown again with its messages, up to maxLoginAttempts times.
func runTerminalFlow(ctx context.Context, client *kratos.Client, kind kratos.FlowKind, prompts *tui.Renderer) (kratos.UpdateResult, error) {
	flow, err := client.CreateAPIFlow(ctx, kind, kratos.Credentials{})
	if err != nil {
		return kratos.UpdateResult{}, err
	}

	for attempt := 1; ; attempt++ {
		values, err := prompts.Collect(ctx, flow.UI, render.RenderOptions{})
		if err != nil {
			return kratos.UpdateResult{}, err
		}
		payload, err := submit.BuildPayload(kind, values)
		if err != nil {
			return kratos.UpdateResult{}, err
		}

		result, err := client.UpdateFlow(ctx, kind, flow.ID, payload, kratos.Credentials{})
		if err == nil {
			return result, nil
		}
		apiErr, ok := kratos.AsAPIError(err)
		if !ok || !apiErr.HasFlow() || attempt >= maxLoginAttempts {
			return kratos.UpdateResult{}, err
		}
		flow = apiErr.Flow
	}
}

// NewLogoutCommand revokes a session token handed out by login.
func NewLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Revoke a session token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "session-token",
				Usage:    "Session token to revoke",
				Sources:  cli.EnvVars("AUTHUI_SESSION_TOKEN"),
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newKratosClient(cfg, logger)
			if err != nil {
				return err
			}
			if err := client.PerformAPILogout(ctx, cmd.String("session-token")); err != nil {
				return err
			}
			logger.Info("session revoked")
			return nil
		},
	}
}

// NewStatusCommand reports the identity service health and, with a session
// token, the session it belongs to.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check the identity service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "session-token",
				Usage:   "Also look up this session",
				Sources: cli.EnvVars("AUTHUI_SESSION_TOKEN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newKratosClient(cfg, logger)
			if err != nil {
				return err
			}

			status, err := client.Status(ctx)
			if err != nil {
				return err
			}
			report := map[string]any{"kratos": client.PublicURL(), "status": status}

			if token := cmd.String("session-token"); token != "" {
				sess, err := client.ToSession(ctx, kratos.Credentials{SessionToken: token})
				switch {
				case err == nil:
					report["session"] = sess
				case kratos.IsUnauthorized(err):
					report["session"] = nil
				default:
					return err
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !status.Alive {
				return errors.New("identity service is not alive")
			}
			return nil
		},
	}
}
