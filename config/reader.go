package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type ConfigSchema struct {
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Store struct {
		// Driver selects the shard backend: "mongo" or "memory".
		Driver string   `yaml:"driver"`
		URI    string   `yaml:"uri"`
		Shards []string `yaml:"shards"`
	} `yaml:"store"`
	Auth struct {
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
		TokenTTL   int    `yaml:"token_ttl_minutes"`
	} `yaml:"auth"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		Enabled  bool   `yaml:"enabled"`
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

// LoadConfig reads and validates a yaml config file. The returned value is
// treated as immutable; the shard list in particular is fixed for the life
// of the process, since placement is a pure function of it.
func LoadConfig(filePath string) (*ConfigSchema, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var conf ConfigSchema
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	conf.applyDefaults()

	if len(conf.Store.Shards) < 2 {
		return nil, fmt.Errorf("config: at least 2 shards required, got %d", len(conf.Store.Shards))
	}
	seen := make(map[string]bool, len(conf.Store.Shards))
	for _, name := range conf.Store.Shards {
		if seen[name] {
			return nil, fmt.Errorf("config: duplicate shard name %q", name)
		}
		seen[name] = true
	}
	return &conf, nil
}

func (c *ConfigSchema) applyDefaults() {
	if c.Backend.Port == 0 {
		c.Backend.Port = 8080
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "mongo"
	}
	if len(c.Store.Shards) == 0 {
		c.Store.Shards = []string{"properties_db1", "properties_db2", "properties_db3", "properties_db4"}
	}
	if c.Auth.Database == "" {
		c.Auth.Database = "authentication"
	}
	if c.Auth.Collection == "" {
		c.Auth.Collection = "login_info"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 60
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "listing_events"
	}
}
