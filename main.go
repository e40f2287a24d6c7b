package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hydrogen/pos-receipts/cmd/generate"
	"hydrogen/pos-receipts/cmd/preview"
	"hydrogen/pos-receipts/cmd/root"
	"hydrogen/pos-receipts/cmd/sample"
	"hydrogen/pos-receipts/cmd/templates"
	"hydrogen/pos-receipts/internal/receipterror"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(generate.Cmd)
	root.Cmd.AddCommand(preview.Cmd)
	root.Cmd.AddCommand(templates.Cmd)
	root.Cmd.AddCommand(sample.Cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.Cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		root.GetLogger().WithError(err).Debug("Command failed")
		fmt.Fprintln(os.Stderr, receipterror.UserMessage(err))
		os.Exit(1)
	}
}
