package main

import (
	"flag"
	"log"

	"adreset/internal/config"
	"adreset/internal/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== adreset — Active Directory self-service password reset ===")
	log.Printf("Version: %s", version)
	log.Printf("Listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Directory: %s (domain %s)", cfg.AD.URI, cfg.AD.Domain)
	if !cfg.AD.AccountStatusEnabled() {
		log.Println("The account status endpoint is disabled")
	}

	if err := server.Start(cfg, version); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
