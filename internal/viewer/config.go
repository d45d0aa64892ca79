package viewer

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the viewer server configuration. Values come from LASCLOUD_*
// environment variables (optionally via a .env file, loaded by the caller)
// and may be overridden by flags in main.
type Config struct {
	Listen    string `envconfig:"LISTEN" default:":8080"`
	DBPath    string `envconfig:"DB" default:"lascloud.db"`
	MaxPoints int    `envconfig:"MAX_POINTS" default:"50000"`
	PlaneGrid int    `envconfig:"PLANE_GRID" default:"10"`
	DevMode   bool   `envconfig:"DEV" default:"false"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("lascloud", &cfg); err != nil {
		return Config{}, fmt.Errorf("viewer: read environment config: %w", err)
	}
	return cfg, nil
}
