package cli

import (
	"fmt"
	"strings"

	"contact-scrape-go/pkg/config"

	"github.com/pelletier/go-toml/v2"
)

// ShowConfig displays the current configuration
func (a *App) ShowConfig() error {
	data, err := toml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}

// SetConfig sets a configuration value and saves the file
// Format: section.key=value (e.g., "scraper.base_url=http://localhost:3000")
func (a *App) SetConfig(setStr string) error {
	parts := strings.SplitN(setStr, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid format: expected 'section.key=value'")
	}

	key := strings.TrimSpace(parts[0])
	if len(strings.Split(key, ".")) != 2 {
		return fmt.Errorf("invalid key format: expected 'section.key'")
	}

	if err := a.cfg.Set(key, parts[1]); err != nil {
		return err
	}
	return a.saveConfig()
}

func (a *App) saveConfig() error {
	if a.configPath != "" {
		return config.SaveFile(a.cfg, a.configPath)
	}
	return config.Save(a.cfg)
}
