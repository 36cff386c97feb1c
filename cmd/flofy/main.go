// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "flofy",
		Usage: "Offline-first storage for the Flofy chat widget",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"FLOFY_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Path to the local BadgerDB directory",
				EnvVars: []string{"FLOFY_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "remote",
				Usage:   "Remote backend (none, mongo, redis)",
				EnvVars: []string{"FLOFY_REMOTE"},
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Remote document id (defaults to the stored userId)",
				EnvVars: []string{"FLOFY_USER_ID"},
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Start with connectivity off; writes are queued",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Read a key, reconciling with the remote",
				ArgsUsage: "KEY",
				Action:    getCommand,
			},
			{
				Name:      "set",
				Usage:     "Write a key locally and to the remote",
				ArgsUsage: "KEY VALUE",
				Action:    setCommand,
			},
			{
				Name:      "remove",
				Usage:     "Delete a key from the local store",
				ArgsUsage: "KEY",
				Action:    removeCommand,
			},
			{
				Name:   "keys",
				Usage:  "List local keys",
				Action: keysCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "legacy",
						Usage: "Only list keys the migration sweep copies",
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Copy legacy local data to the remote document",
				Action: migrateCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Do not print progress",
					},
				},
			},
			{
				Name:  "history",
				Usage: "Inspect or edit the chat transcript",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the transcript",
						Action: historyShowCommand,
					},
					{
						Name:      "add",
						Usage:     "Append a message",
						ArgsUsage: "TEXT",
						Action:    historyAddCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "role",
								Usage: "Message role (user, assistant, system)",
								Value: "user",
							},
						},
					},
					{
						Name:   "clear",
						Usage:  "Empty the transcript and its summary",
						Action: historyClearCommand,
					},
				},
			},
			{
				Name:   "summarize",
				Usage:  "Fold old transcript messages into the rolling summary",
				Action: summarizeCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Summarize even when under the threshold",
					},
					&cli.StringFlag{
						Name:    "ai-host",
						Usage:   "OpenAI-compatible service host URL",
						EnvVars: []string{"FLOFY_AI_HOST"},
					},
					&cli.StringFlag{
						Name:    "ai-model",
						Usage:   "Model used for summaries",
						EnvVars: []string{"FLOFY_AI_MODEL"},
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Follow remote changes into the local store until interrupted",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "metrics-addr",
						Usage:   "Serve Prometheus metrics on this address",
						EnvVars: []string{"FLOFY_METRICS_ADDR"},
					},
				},
			},
			{
				Name:   "serve-notify",
				Usage:  "Serve the verification email endpoint",
				Action: serveNotifyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						EnvVars: []string{"FLOFY_NOTIFY_ADDR"},
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level log.Level
	switch levelStr {
	case "debug":
		level = log.DebugLevel
	case "info":
		level = log.InfoLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}
