package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

func main() {
	ctx, stop := signalContext(context.Background())

	a := newApp(os.Stdout, os.Stderr)
	rootCmd := NewRootCmd(a)

	if err := fang.Execute(ctx, rootCmd); err != nil {
		stop()
		os.Exit(a.failCode)
	}
	stop()
	os.Exit(a.exitCode)
}
