package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/simplesurance/mrspy/internal/cfg"
	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/metrics"
	"github.com/simplesurance/mrspy/internal/spy"
)

const appName = "mrspy"

var logger = zap.NewNop()

// Version is set via a ldflag on compilation
var Version = "unknown"

const defConfigFile = "/etc/mrspy/config.toml"

const metricsPushTimeout = 10 * time.Second

const (
	exitCodeFailure = 1
	exitCodeUsage   = 2
)

type command struct {
	arg         string
	description string
	update      bool
	run         func(*spy.Commands, context.Context, string) error
}

var commands = map[string]*command{
	"lint": {
		arg:         "SPYFILE",
		description: "check that the channel and the projects of a spyfile are accessible",
		run:         (*spy.Commands).LintOne,
	},
	"lint-all-in": {
		arg:         "DIR",
		description: "lint all spyfiles in a directory",
		run:         (*spy.Commands).LintMany,
	},
	"update": {
		arg:         "SPYFILE",
		description: "synchronize the open merge requests of a spyfile into its slack channel",
		update:      true,
		run:         (*spy.Commands).UpdateOne,
	},
	"update-all-in": {
		arg:         "DIR",
		description: "update all spyfiles in a directory",
		update:      true,
		run:         (*spy.Commands).UpdateMany,
	},
}

func exitOnErr(msg string, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "ERROR:", msg+", error:", err.Error())
	os.Exit(exitCodeFailure)
}

func panicHandler() {
	if r := recover(); r != nil {
		logger.Info(
			"panic caught , terminating gracefully",
			zap.String("panic", fmt.Sprintf("%v", r)),
			zap.StackSkip("stacktrace", 1),
		)

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
		defer cancelFn()

		goodbye.Exit(ctx, exitCodeFailure)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [OPTION]... ARG\nSynchronize open GitLab merge requests into Slack channels.\n", appName)
	fmt.Fprintf(os.Stderr, "\nCommands:\n")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(os.Stderr, "  %-28s %s\n", name+" "+cmd.arg, cmd.description)
	}

	fmt.Fprintf(os.Stderr, "\nRun '%s COMMAND --help' to show the options of a command.\n", appName)
}

type arguments struct {
	Verbose     *bool
	ConfigFile  *string
	ShowVersion *bool
	Settings    *cfg.Flags
	Arg         string
}

func mustParseCommandlineParams(name string, cmd *command, cmdArgs []string) *arguments {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	args := arguments{
		Verbose: fs.BoolP(
			"verbose",
			"v",
			false,
			"enable verbose logging",
		),
		ConfigFile: fs.StringP(
			"cfg-file",
			"c",
			defConfigFile,
			"path to the mrspy configuration file, it is optional if the default path does not exist",
		),
		ShowVersion: fs.Bool(
			"version",
			false,
			"print the version and exit",
		),
		Settings: cfg.RegisterFlags(fs, cmd.update),
	}

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [OPTION]... %s\n%s.\n", appName, name, cmd.arg, cmd.description)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(cmdArgs); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}

		os.Exit(exitCodeUsage)
	}

	if *args.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		os.Exit(0)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "ERROR: expecting exactly 1 %s argument, got %d\n\n", cmd.arg, fs.NArg())
		fs.Usage()
		os.Exit(exitCodeUsage)
	}

	args.Arg = fs.Arg(0)

	return &args
}

func mustParseCfg(args *arguments, explicit bool) *cfg.Config {
	// we use exitOnErr in this function instead of logger.Fatal() because
	// the logger is not initialized yet

	file, err := os.Open(*args.ConfigFile)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &cfg.Config{}
		}

		exitOnErr("could not open configuration file", err)
	}
	defer file.Close()

	config, err := cfg.Load(file)
	exitOnErr(fmt.Sprintf("could not load configuration file: %s", *args.ConfigFile), err)

	return config
}

func logWriter(settings *cfg.Settings) zapcore.WriteSyncer {
	if settings.LogFile == "" {
		return zapcore.Lock(os.Stderr)
	}

	lj := &lumberjack.Logger{
		Filename:   settings.LogFile,
		MaxSize:    50,
		MaxBackups: 3,
	}

	goodbye.Register(func(context.Context, os.Signal) {
		_ = lj.Close()
	})

	return zapcore.AddSync(lj)
}

func zapEncoderConfig(settings *cfg.Settings) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.LevelKey = "loglevel"
	cfg.TimeKey = settings.LogTimeKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return cfg
}

func newEncoder(settings *cfg.Settings) (zapcore.Encoder, error) {
	encCfg := zapEncoderConfig(settings)

	switch settings.LogFormat {
	case "logfmt":
		return zaplogfmt.NewEncoder(encCfg), nil
	case "console":
		return zapcore.NewConsoleEncoder(encCfg), nil
	case "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("unsupported log-format argument: %q", settings.LogFormat)
	}
}

func mustInitLogger(settings *cfg.Settings, verbose bool) {
	var logLevel zapcore.Level
	if verbose {
		logLevel = zapcore.DebugLevel
	} else {
		if err := (&logLevel).Set(settings.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "can not set log level to %q: %s \n", settings.LogLevel, err)
			os.Exit(exitCodeUsage)
		}
	}

	enc, err := newEncoder(settings)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeUsage)
	}

	logger = zap.New(zapcore.NewCore(enc, logWriter(settings), logLevel)).Named("main")
	zap.ReplaceGlobals(logger)

	goodbye.Register(func(context.Context, os.Signal) {
		// syncing stderr fails on some platforms, errors are ignored
		_ = logger.Sync()
	})
}

func hide(in string) string {
	if in == "" {
		return in
	}

	return "**hidden**"
}

func pushMetrics(url string) {
	if url == "" {
		return
	}

	ctx, cancelFn := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancelFn()

	if err := metrics.Push(ctx, url); err != nil {
		logger.Warn(
			"pushing metrics failed",
			logfields.Event("metrics_push_failed"),
			logfields.URL(url),
			zap.Error(err),
		)
	}
}

func main() {
	defer panicHandler()

	defer goodbye.Exit(context.Background(), exitCodeFailure)
	goodbye.Notify(context.Background())

	if len(os.Args) < 2 {
		usage()
		os.Exit(exitCodeUsage) // nolint:gocritic // defer functions won't run
	}

	switch os.Args[1] {
	case "--version":
		fmt.Printf("%s %s\n", appName, Version)
		os.Exit(0)
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	}

	cmdName := os.Args[1]
	cmd, exist := commands[cmdName]
	if !exist {
		fmt.Fprintf(os.Stderr, "ERROR: unknown command: %q\n\n", cmdName)
		usage()
		os.Exit(exitCodeUsage)
	}

	args := mustParseCommandlineParams(cmdName, cmd, os.Args[2:])
	config := mustParseCfg(args, *args.ConfigFile != defConfigFile)

	settings, err := cfg.Resolve(args.Settings, config, os.LookupEnv)
	exitOnErr("resolving settings failed", err)

	mustInitLogger(settings, *args.Verbose)

	logger.Debug(
		"settings resolved",
		logfields.Event("settings_resolved"),
		zap.String("command", cmdName),
		zap.String("cfg_file", *args.ConfigFile),
		zap.String("gitlab_api_url", settings.GitlabAPIURL),
		zap.String("gitlab_token", hide(settings.GitlabToken)),
		zap.String("slack_api_url", settings.SlackAPIURL),
		zap.String("slack_token", hide(settings.SlackToken)),
		zap.String("slack_bot_id", settings.SlackBotID),
		zap.Int("hours_to_overdue", settings.HoursToOverdue),
		zap.Bool("cleanup", settings.Cleanup),
		zap.Bool("dry_run", settings.DryRun),
		zap.Int("concurrency", settings.Concurrency),
		zap.String("log_format", settings.LogFormat),
		zap.String("log_level", settings.LogLevel),
		zap.String("metrics_pushgateway_url", settings.MetricsPushgatewayURL),
	)

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	goodbye.Register(func(_ context.Context, sig os.Signal) {
		if sig != nil {
			logger.Info(fmt.Sprintf("terminating, received signal %s", sig.String()))
		}

		cancelFn()
	})

	err = cmd.run(spy.NewCommands(settings), ctx, args.Arg)

	pushMetrics(settings.MetricsPushgatewayURL)

	if err != nil {
		logger.Info(
			"command failed",
			logfields.Event("command_failed"),
			zap.String("command", cmdName),
			zap.Error(err),
		)

		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		goodbye.Exit(context.Background(), exitCodeFailure)
	}

	goodbye.Exit(context.Background(), 0)
}
