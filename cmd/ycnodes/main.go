// Package main provides the ycnodes CLI: listing node types, inspecting
// schemas, validating configurations, and running workflow files locally.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"

	cmdsetup "github.com/flowhost/yandexcloud-nodes/pkg/cmd"
	"github.com/flowhost/yandexcloud-nodes/pkg/log"
	"github.com/flowhost/yandexcloud-nodes/pkg/registry"
)

func main() {
	logger := log.WithModule("cli")

	cmd := &cli.Command{
		Name:                  "ycnodes",
		Usage:                 "Run Yandex Cloud workflow nodes",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			if envFile := command.String("env-file"); envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return ctx, fmt.Errorf("failed to load env file %s: %w", envFile, err)
				}
			}

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the available node types",
				Action: func(ctx context.Context, command *cli.Command) error {
					return listNodes(newRegistry(logger))
				},
			},
			{
				Name:      "schema",
				Usage:     "Print the JSON schema of a node type",
				ArgsUsage: "<node-type>",
				Action: func(ctx context.Context, command *cli.Command) error {
					return printSchema(newRegistry(logger), command.Args().First())
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a node configuration file",
				ArgsUsage: "<node-type>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the JSON configuration file",
						Required: true,
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return validateConfig(newRegistry(logger), command.Args().First(), command.String("config"))
				},
			},
			{
				Name:  "run",
				Usage: "Run the node sequence of a workflow file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the YAML run file",
						Required: true,
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

					if err := cmdsetup.Observability(ctx, "ycnodes", bus, command.Bool("tracing")); err != nil {
						return err
					}

					return runWorkflow(ctx, logger, newRegistry(logger), command.String("file"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newRegistry(logger *slog.Logger) *registry.Registry {
	r := registry.NewRegistry(logger)
	r.RegisterDefaultNodes()

	return r
}

func listNodes(r *registry.Registry) error {
	for _, component := range r.GetAvailableNodes() {
		fmt.Printf("%-22s %-28s %s\n", component.Type, component.Name, component.Description)
	}

	return nil
}

func printSchema(r *registry.Registry, nodeType string) error {
	if nodeType == "" {
		return fmt.Errorf("node type argument is required")
	}

	schema, err := r.GetNodeSchema(nodeType)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(encoded))

	return nil
}

func validateConfig(r *registry.Registry, nodeType, configPath string) error {
	if nodeType == "" {
		return fmt.Errorf("node type argument is required")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("config file %s is not valid JSON: %w", configPath, err)
	}

	if err := r.ValidateConfig(nodeType, config); err != nil {
		return err
	}

	fmt.Println("configuration is valid")

	return nil
}
