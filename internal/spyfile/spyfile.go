// Package spyfile loads spyfiles, the documents describing which GitLab
// projects are synchronized into which Slack channel.
package spyfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/spyerr"
)

// Format is the encoding of a spyfile.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "unknown"
	}
}

// FormatFromPath returns the format of a spyfile by its file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("unsupported spyfile extension %q, supported: .yml, .yaml, .toml", filepath.Ext(path))
	}
}

type bot struct {
	ID    string `yaml:"id" toml:"id"`
	Token string `yaml:"token" toml:"token"`
}

type slack struct {
	ChannelID string `yaml:"channelId" toml:"channelId"`
	Bot       bot    `yaml:"bot" toml:"bot"`
}

type settings struct {
	IgnoreWIPs  bool   `yaml:"ignoreWIPs" toml:"ignoreWIPs"`
	FilterQuery string `yaml:"filterQuery" toml:"filterQuery"`
}

type repository struct {
	Name    string   `yaml:"name" toml:"name"`
	Authors []string `yaml:"authors" toml:"authors"`
}

type document struct {
	Slack        slack                 `yaml:"slack" toml:"slack"`
	Settings     settings              `yaml:"settings" toml:"settings"`
	Repositories map[string]repository `yaml:"repositories" toml:"repositories"`
}

// Bot is the Slack identity that authors the synchronized messages.
type Bot struct {
	ID    string
	Token string
}

// Settings are the filter settings of a spyfile.
type Settings struct {
	IgnoreWIPs  bool
	FilterQuery string
}

// Spyfile describes the GitLab projects whose merge requests are
// synchronized into a Slack channel.
type Spyfile struct {
	Path    string
	Channel string
	// Bot is nil if the spyfile does not define a bot.
	Bot      *Bot
	Settings Settings
	// Projects are sorted by their ID.
	Projects []*mergerequest.ProjectConfiguration

	filter *mergerequest.RulesFilter
}

// Filter returns the merge request filter defined by the settings of the
// spyfile.
func (s *Spyfile) Filter() *mergerequest.RulesFilter {
	return s.filter
}

// Load reads and validates the spyfile at path.
func Load(path string) (*Spyfile, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	result, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	result.Path = path

	return result, nil
}

// Parse reads and validates a spyfile from reader.
func Parse(reader io.Reader, format Format) (*Spyfile, error) {
	var doc document

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)

		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parsing yaml failed: %w", err)
		}

	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing toml failed: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	return fromDocument(&doc)
}

func fromDocument(doc *document) (*Spyfile, error) {
	if doc.Slack.ChannelID == "" {
		return nil, spyerr.NewConfigurationError("slack.channelId", "is missing")
	}

	if len(doc.Repositories) == 0 {
		return nil, spyerr.NewConfigurationError("repositories", "at least 1 repository must be defined")
	}

	filter, err := mergerequest.NewRulesFilter(doc.Settings.IgnoreWIPs, doc.Settings.FilterQuery)
	if err != nil {
		return nil, spyerr.NewConfigurationError("settings.filterQuery", err.Error())
	}

	result := Spyfile{
		Channel: doc.Slack.ChannelID,
		Settings: Settings{
			IgnoreWIPs:  doc.Settings.IgnoreWIPs,
			FilterQuery: doc.Settings.FilterQuery,
		},
		Projects: make([]*mergerequest.ProjectConfiguration, 0, len(doc.Repositories)),
		filter:   filter,
	}

	if doc.Slack.Bot.ID != "" || doc.Slack.Bot.Token != "" {
		result.Bot = &Bot{
			ID:    doc.Slack.Bot.ID,
			Token: doc.Slack.Bot.Token,
		}
	}

	for id, repo := range doc.Repositories {
		if strings.TrimSpace(id) == "" {
			return nil, spyerr.NewConfigurationError("repositories", "repository id is empty")
		}

		result.Projects = append(result.Projects, mergerequest.NewProjectConfiguration(id, repo.Name, repo.Authors))
	}

	sort.Slice(result.Projects, func(i, j int) bool {
		return result.Projects[i].ID < result.Projects[j].ID
	})

	return &result, nil
}

// ListDir returns the paths of the spyfiles in dir, sorted by name.
// Only regular files with a supported extension are returned, hidden files
// are skipped. Subdirectories are not searched.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var result []string

	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		if _, err := FormatFromPath(e.Name()); err != nil {
			continue
		}

		result = append(result, filepath.Join(dir, e.Name()))
	}

	return result, nil
}
