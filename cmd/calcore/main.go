package main

import (
	"os"

	appLog "calcore/internal/log"
)

func main() {
	if err := Execute(); err != nil {
		appLog.Error("calcore failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Sync()
}
