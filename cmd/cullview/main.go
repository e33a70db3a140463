package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"spatial3d/internal/config"
	"spatial3d/internal/viewer"

	log "github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "spatial.toml", "TOML config file; defaults are used when it does not exist")
	scenePath  = flag.String("scene", "", "JSON scene to load instead of the random box field")
	boxes      = flag.Int("boxes", 2000, "number of random boxes when no scene is given")
)

func main() {
	flag.Parse()

	// Change working directory to executable location for deployed builds.
	// Skip this for "go run" which puts the binary in a temp directory.
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		if !strings.Contains(execDir, "go-build") {
			absolutize(configPath)
			absolutize(scenePath)
			os.Chdir(execDir)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	cfg.ApplyLogging()

	if err := viewer.New(cfg, *scenePath, *boxes).Run(); err != nil {
		log.Fatalf("Viewer: %v", err)
	}
}

// absolutize resolves a relative path flag against the launch directory.
func absolutize(path *string) {
	if *path == "" || filepath.IsAbs(*path) {
		return
	}
	if abs, err := filepath.Abs(*path); err == nil {
		*path = abs
	}
}
