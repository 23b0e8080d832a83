package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-authui/internal/config"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "authui",
		Usage:                 "Render and serve identity self-service flows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (authui.yaml in the working directory when empty)",
				Sources: cli.EnvVars("AUTHUI_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (trace, debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewRenderCommand(),
			NewLoginCommand(),
			NewLogoutCommand(),
			NewStatusCommand(),
		},
	}
}

// loadConfig reads the configuration named by the root flags and builds the
// process logger.
func loadConfig(cmd *cli.Command) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(config.Options{
		File:    cmd.String("config"),
		EnvFile: cmd.String("env-file"),
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, cfg.Log.NewLogger(os.Stderr), nil
}
