// Package main is the postlens operator CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"postlens/internal/platform/config"
)

func main() {
	_, _ = config.LoadDotenv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
