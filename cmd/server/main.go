package main

import (
	"os"

	"droneDeliveryScheduler/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
