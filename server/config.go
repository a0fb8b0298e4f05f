package server

import (
	"github.com/joeshaw/envdecode"
)

// Config is the server's environment configuration.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"TRUNKLINE_ADDR,default=:8080"`
	// GameFile is the YAML game definition every hosted game uses.
	GameFile string `env:"TRUNKLINE_GAME_FILE,required"`
	// RedisAddr enables the room registry when set.
	RedisAddr string `env:"TRUNKLINE_REDIS_ADDR"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
