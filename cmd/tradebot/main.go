package main

import (
	"os"

	"github.com/nsahay2509/crypto-trade-dashboard/cmd/tradebot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
