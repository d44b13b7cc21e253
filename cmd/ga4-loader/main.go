package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := cli.NewRootCommand(cli.Deps{
		Confirmer: cli.NewSurveyConfirmer(),
		Run:       cli.Execute,
		Out:       os.Stdout,
	})

	err := cmd.ExecuteContext(ctx)
	stop()

	os.Exit(cli.ExitCode(err))
}
