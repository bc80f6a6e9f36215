package cfg

import (
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/simplesurance/mrspy/internal/gitlabclt"
	"github.com/simplesurance/mrspy/internal/reconcile"
	"github.com/simplesurance/mrspy/internal/routines"
	"github.com/simplesurance/mrspy/internal/slackclt"
	"github.com/simplesurance/mrspy/internal/spyerr"
)

// EnvPrefix is the prefix of all environment variables read by mrspy.
const EnvPrefix = "MRSPY_"

const (
	DefaultLogFormat  = "logfmt"
	DefaultLogLevel   = "warn"
	DefaultLogTimeKey = "time"
)

const (
	settingGitlabAPIURL   = "gitlab-api-url"
	settingGitlabToken    = "gitlab-token"
	settingSlackAPIURL    = "slack-api-url"
	settingSlackToken     = "slack-token"
	settingSlackBotID     = "slack-bot-id"
	settingHoursToOverdue = "hours-to-overdue"
	settingCleanup        = "cleanup"
	settingDryRun         = "dry-run"
	settingConcurrency    = "concurrency"
	settingLogFormat      = "log-format"
	settingLogLevel       = "log-level"
	settingLogFile        = "log-file"
	settingPushgatewayURL = "metrics-pushgateway-url"
)

// Settings are the resolved settings of a mrspy run.
type Settings struct {
	GitlabAPIURL          string
	GitlabToken           string
	SlackAPIURL           string
	SlackToken            string
	SlackBotID            string
	HoursToOverdue        int
	Cleanup               bool
	DryRun                bool
	Concurrency           int
	LogFormat             string
	LogLevel              string
	LogTimeKey            string
	LogFile               string
	MetricsPushgatewayURL string
}

// Flags are the command line flags that override settings.
type Flags struct {
	fs *pflag.FlagSet

	gitlabAPIURL   *string
	gitlabToken    *string
	slackAPIURL    *string
	slackToken     *string
	slackBotID     *string
	hoursToOverdue *int
	cleanup        *bool
	dryRun         *bool
	concurrency    *int
	logFormat      *string
	logLevel       *string
	logFile        *string
	pushgatewayURL *string
}

// RegisterFlags registers the settings flags at fs.
// If updateFlags is true, flags that only apply to update commands are
// registered too.
func RegisterFlags(fs *pflag.FlagSet, updateFlags bool) *Flags {
	f := Flags{
		fs: fs,
		gitlabAPIURL: fs.String(
			settingGitlabAPIURL, "",
			"URL of the GitLab REST API (env: "+envName(settingGitlabAPIURL)+", default: "+gitlabclt.DefaultAPIURL+")",
		),
		gitlabToken: fs.String(
			settingGitlabToken, "",
			"GitLab access token (env: "+envName(settingGitlabToken)+")",
		),
		slackAPIURL: fs.String(
			settingSlackAPIURL, "",
			"URL of the Slack Web API (env: "+envName(settingSlackAPIURL)+", default: "+slackclt.DefaultAPIURL+")",
		),
		slackToken: fs.String(
			settingSlackToken, "",
			"Slack bot token (env: "+envName(settingSlackToken)+")",
		),
		concurrency: fs.Int(
			settingConcurrency, routines.DefaultConcurrency,
			"max. number of parallel requests to each API (env: "+envName(settingConcurrency)+")",
		),
		logFormat: fs.String(
			settingLogFormat, DefaultLogFormat,
			"log format: logfmt, console or json (env: "+envName(settingLogFormat)+")",
		),
		logLevel: fs.String(
			settingLogLevel, DefaultLogLevel,
			"log level (env: "+envName(settingLogLevel)+")",
		),
		logFile: fs.String(
			settingLogFile, "",
			"write logs to a size-rotated file instead of stderr (env: "+envName(settingLogFile)+")",
		),
		pushgatewayURL: fs.String(
			settingPushgatewayURL, "",
			"push metrics to the Prometheus Pushgateway at this URL (env: "+envName(settingPushgatewayURL)+")",
		),
	}

	if !updateFlags {
		return &f
	}

	f.slackBotID = fs.String(
		settingSlackBotID, "",
		"id of the Slack bot that authors the messages (env: "+envName(settingSlackBotID)+")",
	)
	f.hoursToOverdue = fs.Int(
		settingHoursToOverdue, reconcile.DefaultHoursToOverdue,
		"age in hours after which unapproved merge requests are marked as overdue (env: "+envName(settingHoursToOverdue)+")",
	)
	f.cleanup = fs.Bool(
		settingCleanup, false,
		"delete all messages of the bot in the channel before synchronizing (env: "+envName(settingCleanup)+")",
	)
	f.dryRun = fs.Bool(
		settingDryRun, false,
		"do not change the channel, only log the operations that would be run",
	)

	return &f
}

func envName(setting string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(setting, "-", "_"))
}

func resolveString(f *Flags, lookup LookupEnvFunc, setting string, flagVal *string, fileVal, def string) (string, error) {
	val, _, err := FirstOf(
		FromFlag(f.fs, setting, flagVal),
		FromEnv(lookup, envName(setting)),
		FromValue(fileVal),
		Default(def),
	)

	return val, err
}

func resolveInt(f *Flags, lookup LookupEnvFunc, setting string, flagVal *int, fileVal, def int) (int, error) {
	val, _, err := FirstOf(
		FromFlag(f.fs, setting, flagVal),
		FromEnvInt(lookup, envName(setting)),
		FromValue(fileVal),
		Default(def),
	)

	return val, err
}

// Resolve returns the settings.
// Each setting is taken from the first source that provides it, in the
// order: command line flag, environment variable, configuration file,
// default value.
// file can be nil. If lookupEnv is nil, os.LookupEnv is used.
func Resolve(f *Flags, file *Config, lookupEnv LookupEnvFunc) (*Settings, error) {
	var err error
	var result Settings

	if file == nil {
		file = &Config{}
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	strSettings := []struct {
		setting string
		flagVal *string
		fileVal string
		def     string
		dest    *string
	}{
		{settingGitlabAPIURL, f.gitlabAPIURL, file.GitlabAPIURL, gitlabclt.DefaultAPIURL, &result.GitlabAPIURL},
		{settingGitlabToken, f.gitlabToken, file.GitlabToken, "", &result.GitlabToken},
		{settingSlackAPIURL, f.slackAPIURL, file.SlackAPIURL, slackclt.DefaultAPIURL, &result.SlackAPIURL},
		{settingSlackToken, f.slackToken, file.SlackToken, "", &result.SlackToken},
		{settingSlackBotID, f.slackBotID, file.SlackBotID, "", &result.SlackBotID},
		{settingLogFormat, f.logFormat, file.LogFormat, DefaultLogFormat, &result.LogFormat},
		{settingLogLevel, f.logLevel, file.LogLevel, DefaultLogLevel, &result.LogLevel},
		{settingLogFile, f.logFile, file.LogFile, "", &result.LogFile},
		{settingPushgatewayURL, f.pushgatewayURL, file.MetricsPushgatewayURL, "", &result.MetricsPushgatewayURL},
	}

	for _, s := range strSettings {
		if *s.dest, err = resolveString(f, lookupEnv, s.setting, s.flagVal, s.fileVal, s.def); err != nil {
			return nil, err
		}
	}

	result.LogTimeKey = file.LogTimeKey
	if result.LogTimeKey == "" {
		result.LogTimeKey = DefaultLogTimeKey
	}

	result.HoursToOverdue, err = resolveInt(f, lookupEnv, settingHoursToOverdue, f.hoursToOverdue, file.HoursToOverdue, reconcile.DefaultHoursToOverdue)
	if err != nil {
		return nil, err
	}

	result.Concurrency, err = resolveInt(f, lookupEnv, settingConcurrency, f.concurrency, file.Concurrency, routines.DefaultConcurrency)
	if err != nil {
		return nil, err
	}

	if result.Concurrency < 1 {
		return nil, spyerr.NewConfigurationError(settingConcurrency, "must be greater than 0")
	}

	if result.HoursToOverdue < 0 {
		return nil, spyerr.NewConfigurationError(settingHoursToOverdue, "must not be negative")
	}

	result.Cleanup, _, err = FirstOf(
		FromFlag(f.fs, settingCleanup, f.cleanup),
		FromEnvBool(lookupEnv, envName(settingCleanup)),
		Default(false),
	)
	if err != nil {
		return nil, err
	}

	if f.dryRun != nil {
		result.DryRun = *f.dryRun
	}

	return &result, nil
}

// RequireGitlab returns a spyerr.ConfigurationError if the GitLab access
// token is missing.
func (s *Settings) RequireGitlab() error {
	if s.GitlabToken == "" {
		return spyerr.NewConfigurationError(
			settingGitlabToken,
			"missing, set it via --"+settingGitlabToken+" or the "+envName(settingGitlabToken)+" environment variable",
		)
	}

	return nil
}

// MissingSlackToken returns the error for a missing Slack token.
func MissingSlackToken() error {
	return spyerr.NewConfigurationError(
		settingSlackToken,
		"missing, set it via --"+settingSlackToken+", the "+envName(settingSlackToken)+" environment variable or the bot section of the spyfile",
	)
}

// MissingSlackBotID returns the error for a missing Slack bot id.
func MissingSlackBotID() error {
	return spyerr.NewConfigurationError(
		settingSlackBotID,
		"missing, set it via --"+settingSlackBotID+", the "+envName(settingSlackBotID)+" environment variable or the bot section of the spyfile",
	)
}
