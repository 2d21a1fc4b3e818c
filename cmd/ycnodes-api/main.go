// Package main provides the node catalog API server.
package main

import (
	"context"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"

	cmdsetup "github.com/flowhost/yandexcloud-nodes/pkg/cmd"
	"github.com/flowhost/yandexcloud-nodes/pkg/log"
	"github.com/flowhost/yandexcloud-nodes/pkg/registry"
	"github.com/flowhost/yandexcloud-nodes/pkg/web"
)

const defaultPort = 9092

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "ycnodes-api",
		Usage:                 "Serve the node catalog over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Execution event bus provider (none, gochannel, kafka)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers for the kafka event bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for node executions",
				Sources: cli.EnvVars("TRACING"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for sharing IAM tokens between processes",
				Sources: cli.EnvVars("REDIS_URL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing node catalog API")

			if err := cmdsetup.TokenCache(command.String("redis-url"), logger); err != nil {
				return err
			}

			bus, err := cmdsetup.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), "", logger)
			if err != nil {
				return err
			}

			if bus != nil {
				defer func() {
					if err := bus.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()
			}

			if err := cmdsetup.Observability(ctx, "ycnodes-api", bus, command.Bool("tracing")); err != nil {
				return err
			}

			r := registry.NewRegistry(logger)
			r.RegisterDefaultNodes()

			validate := validator.New(validator.WithRequiredStructEnabled())
			handlers := web.NewAPIHandlers(r, validate, logger)
			app := web.NewApp(handlers)

			return app.Listen(":" + strconv.Itoa(command.Int("port")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
