// Package cfg contains the mrspy configuration file and the resolution of
// settings from command line flags, environment variables, the
// configuration file and defaults.
package cfg

import (
	"io"

	"github.com/pelletier/go-toml"
)

// Config is the optional mrspy configuration file.
// Unset values are empty.
type Config struct {
	GitlabAPIURL          string `toml:"gitlab_api_url"`
	GitlabToken           string `toml:"gitlab_token"`
	SlackAPIURL           string `toml:"slack_api_url"`
	SlackToken            string `toml:"slack_token"`
	SlackBotID            string `toml:"slack_bot_id"`
	HoursToOverdue        int    `toml:"hours_to_overdue"`
	LogFormat             string `toml:"log_format"`
	LogLevel              string `toml:"log_level"`
	LogTimeKey            string `toml:"log_time_key"`
	LogFile               string `toml:"log_file"`
	MetricsPushgatewayURL string `toml:"metrics_pushgateway_url"`
	Concurrency           int    `toml:"concurrency"`
}

func Load(reader io.Reader) (*Config, error) {
	var result Config

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(r)
}
