package config

import "time"

// Config is the storywriter configuration file.
type Config struct {
	Version int           `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	Script  ScriptConfig  `yaml:"script"`
	Stories StoriesConfig `yaml:"stories"`
	Library LibraryConfig `yaml:"library"`
	Client  ClientConfig  `yaml:"client"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	AssetsBaseURL     string `yaml:"assets_base_url"`
	MaxPages          int    `yaml:"max_pages"`
	MaxConcurrentRuns int    `yaml:"max_concurrent_runs"`
}

// ScriptConfig configures the story script launched per run.
type ScriptConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	File    string        `yaml:"file"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoriesConfig configures where finished stories are written.
type StoriesConfig struct {
	Path string `yaml:"path"`
}

// LibraryConfig configures the run library database.
type LibraryConfig struct {
	Path string `yaml:"path"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	Endpoint string `yaml:"endpoint"`
}
