// Command recurrent trains and samples recurrent language models.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/born-ml/recurrent/internal/envconfig"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: envconfig.LogLevel(),
	})))

	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
