package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dukex/stepwise/pkg/cmd"
	"github.com/dukex/stepwise/pkg/log"
	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/services"
	"github.com/dukex/stepwise/pkg/template"
	cli "github.com/urfave/cli/v3"
)

// errOperationFailed marks a failure that has already been printed as JSON.
var errOperationFailed = errors.New("workflow operation failed")

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  "stepwise",
		Usage:                 "Resolve, plan and step through workflow definitions",
		EnableShellCompletion: true,
		Writer:                stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Workflow store URL (file://, postgres://, redis://)",
				Value:   "file://./workflows",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			errWriter := command.ErrWriter
			if errWriter == nil {
				errWriter = os.Stderr
			}

			log.SetupWriter(errWriter, command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			listCommand(),
			resolveCommand(),
			planCommand(),
			advanceCommand(),
			validateCommand(),
			renderCommand(),
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List stored workflows",
		Action: withService(func(ctx context.Context, command *cli.Command, service *services.Workflow) error {
			names, err := service.List(ctx)
			if err != nil {
				return err
			}

			return printJSON(command, names)
		}),
	}
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Expand a workflow and its sub-workflows into a flat step list",
		ArgsUsage: "<workflow>",
		Action: withService(func(ctx context.Context, command *cli.Command, service *services.Workflow) error {
			name, err := workflowArg(command)
			if err != nil {
				return err
			}

			result := service.Resolve(ctx, name)
			if result.Failure != nil {
				return printFailure(command, result.Failure)
			}

			return printJSON(command, result.Workflow)
		}),
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Build an execution plan for a workflow",
		ArgsUsage: "<workflow>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data",
				Usage: "Initial data as a JSON object",
			},
		},
		Action: withService(func(ctx context.Context, command *cli.Command, service *services.Workflow) error {
			name, err := workflowArg(command)
			if err != nil {
				return err
			}

			data, err := parseData(command.String("data"))
			if err != nil {
				return err
			}

			result := service.Plan(ctx, name, data)
			if result.Failure != nil {
				return printFailure(command, result.Failure)
			}

			return printJSON(command, result.Plan)
		}),
	}
}

func advanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "advance",
		Usage:     "Return the next step of a workflow, or its completion",
		ArgsUsage: "<workflow>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "step",
				Aliases: []string{"s"},
				Usage:   "1-based step index (defaults to the first step)",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Current data as a JSON object",
			},
			&cli.BoolFlag{
				Name:  "flatten",
				Usage: "Index the fully resolved step list instead of the workflow's own steps",
			},
		},
		Action: withService(func(ctx context.Context, command *cli.Command, service *services.Workflow) error {
			name, err := workflowArg(command)
			if err != nil {
				return err
			}

			data, err := parseData(command.String("data"))
			if err != nil {
				return err
			}

			req := models.AdvanceRequest{
				Workflow: name,
				Data:     data,
				Mode:     models.AdvanceModeTopLevel,
			}

			if command.IsSet("step") {
				step := command.Int("step")
				req.StepIndex = &step
			}

			if command.Bool("flatten") {
				req.Mode = models.AdvanceModeFlattened
			}

			result := service.Advance(ctx, req)
			if result.Failure != nil {
				return printFailure(command, result.Failure)
			}

			return printJSON(command, result)
		}),
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a stored workflow and everything it references",
		ArgsUsage: "<workflow>",
		Action: withService(func(ctx context.Context, command *cli.Command, service *services.Workflow) error {
			name, err := workflowArg(command)
			if err != nil {
				return err
			}

			result := service.Validate(ctx, name)
			if result.Failure != nil {
				return printFailure(command, result.Failure)
			}

			err = printJSON(command, result)
			if err != nil {
				return err
			}

			if !result.Valid {
				return errOperationFailed
			}

			return nil
		}),
	}
}

// renderResult is the output of the render command.
type renderResult struct {
	Output  string   `json:"output"`
	Missing []string `json:"missing,omitempty"`
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Substitute {{field}} placeholders in a template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "template",
				Aliases:  []string{"t"},
				Usage:    "Template text",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Data as a JSON object",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			data, err := parseData(command.String("data"))
			if err != nil {
				return err
			}

			output, missing := template.Render(command.String("template"), data)

			return printJSON(command, renderResult{Output: output, Missing: missing})
		},
	}
}

type serviceAction func(ctx context.Context, command *cli.Command, service *services.Workflow) error

// withService opens the configured store around action.
func withService(action serviceAction) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		logger := log.WithModule("cli")

		tracer, shutdown := cmd.NewTracer(ctx, logger, "stepwise", command.Bool("tracing"))
		defer func() {
			err := shutdown(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()

		store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
		if err != nil {
			return err
		}

		defer closePersistence(ctx, logger, store)

		return action(ctx, command, services.NewWorkflow(store, logger, tracer))
	}
}

func closePersistence(ctx context.Context, logger *slog.Logger, store persistence.Persistence) {
	err := store.Close(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
	}
}

func workflowArg(command *cli.Command) (string, error) {
	name := command.Args().First()
	if name == "" {
		return "", fmt.Errorf("%s: workflow name is required", command.Name)
	}

	return name, nil
}

// parseData decodes a JSON object flag. An empty flag yields an empty object.
func parseData(raw string) (map[string]any, error) {
	data := map[string]any{}
	if raw == "" {
		return data, nil
	}

	err := json.Unmarshal([]byte(raw), &data)
	if err != nil {
		return nil, fmt.Errorf("--data must be a JSON object: %w", err)
	}

	if data == nil {
		data = map[string]any{}
	}

	return data, nil
}

func printJSON(command *cli.Command, value any) error {
	encoder := json.NewEncoder(command.Root().Writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

// printFailure writes the failure as JSON and reports the command as failed.
func printFailure(command *cli.Command, failure *models.Failure) error {
	err := printJSON(command, failure)
	if err != nil {
		return err
	}

	return errOperationFailed
}
