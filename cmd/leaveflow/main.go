package main

import (
	"log/slog"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow"
)

func main() {

	//you may do your own logger setup here or use this default one with slog
	leaveflow.SetupLogger()

	if err := leaveflow.Start(nil); err != nil {
		slog.Error("Server exited with error", "error", err)
	}
}
