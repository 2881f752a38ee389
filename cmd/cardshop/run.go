package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

func run(ctx context.Context, application *fx.App) {
	if err := application.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build application: %v\n", err)
		os.Exit(1)
	}
	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start cardshop: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-application.Done():
	}

	if err := application.Stop(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop cardshop: %v\n", err)
		os.Exit(1)
	}
}
