package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"foodieconnect/cmd"
)

func main() {
	if err := cmd.NewRootCommand(viper.New()).ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
