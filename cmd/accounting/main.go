package main

import (
	"os"

	"github.com/leafyhealth/accounting-management/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
