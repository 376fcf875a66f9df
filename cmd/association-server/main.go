package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/agent-associations/pkg/app"
	"github.com/chainsafe/agent-associations/pkg/app/api"
	"github.com/chainsafe/agent-associations/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	app.Main("Association server", api.NewServer(cfg))
}
