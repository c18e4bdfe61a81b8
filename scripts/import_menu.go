// Import_menu upserts the menu YAML into the database by item name. Unlike
// the startup seed it also updates prices and descriptions of existing
// items; availability of existing items is left alone.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bamboowoods/internal/config"
	"bamboowoods/internal/database"
	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type menuFile struct {
	Items []models.MenuItem `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		menuPath   = flag.String("menu", "configs/menu.yaml", "path to menu.yaml")
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		dryRun     = flag.Bool("dry-run", false, "report changes without writing")
	)
	flag.Parse()

	data, err := os.ReadFile(*menuPath)
	if err != nil {
		return fmt.Errorf("read menu: %w", err)
	}
	var menu menuFile
	if err = yaml.Unmarshal(data, &menu); err != nil {
		return fmt.Errorf("parse menu: %w", err)
	}
	if len(menu.Items) == 0 {
		return errors.New("no items in yaml")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg.Database, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, updated, skipped := 0, 0, 0
	for _, it := range menu.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" || it.Price <= 0 || it.Category == "" {
			logger.Warn().Str("name", it.Name).Msg("skipping incomplete item")
			skipped++
			continue
		}

		existing, err := db.GetMenuItemByName(ctx, it.Name)
		switch {
		case err == nil:
			it.ID = existing.ID
			it.IsAvailable = existing.IsAvailable
			if !*dryRun {
				if err = db.UpdateMenuItem(ctx, &it); err != nil {
					return fmt.Errorf("update %s: %w", it.Name, err)
				}
			}
			updated++
		case errors.Is(err, database.ErrNotFound):
			if !*dryRun {
				if err = db.CreateMenuItem(ctx, &it); err != nil {
					return fmt.Errorf("create %s: %w", it.Name, err)
				}
			}
			created++
		default:
			return fmt.Errorf("get %s: %w", it.Name, err)
		}
	}

	fmt.Printf("done: created=%d updated=%d skipped=%d dry_run=%t\n", created, updated, skipped, *dryRun)
	return nil
}
