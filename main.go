package main

import (
	"log"
	"os"

	"rankforge/internal/app"

	"github.com/joho/godotenv"
)

// Build-time version info, set via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env: %v", err)
	}

	a, err := app.NewWithVersion(version, commit, date)
	if err != nil {
		log.Fatalf("rankforge: %v", err)
	}

	if err := a.Bootstrap(); err != nil {
		log.Fatalf("rankforge: %v", err)
	}

	if err := a.Start(); err != nil {
		log.Fatalf("rankforge: %v", err)
	}
}
