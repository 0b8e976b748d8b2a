// Package main provides the stepwise command-line client.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

func main() {
	err := newCommand(os.Stdout).Run(context.Background(), os.Args)
	if err != nil {
		if !errors.Is(err, errOperationFailed) {
			slog.Error("Command failed", "error", err)
		}

		os.Exit(1)
	}
}
