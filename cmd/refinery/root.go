package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"refinery/internal/audit"
	"refinery/internal/composer"
	"refinery/internal/config"
	"refinery/internal/logging"
	"refinery/internal/orchestrator"
	"refinery/internal/output"
	"refinery/internal/session"
	"refinery/internal/tagstore"
)

// skipValidation marks commands that run with an invalid configuration.
const skipValidation = "skipValidation"

// app holds what every command needs once the root pre-run has finished.
type app struct {
	cfg     *config.Configuration
	logger  zerolog.Logger
	out     *output.Output
	orch    *orchestrator.Orchestrator
	journal *audit.Writer
}

var (
	state   app
	cmdRoot = &cobra.Command{
		Use:           "refinery",
		Short:         "Rename downloaded audio files to clean \"Artist - Title\" names",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state.journal != nil {
				if err := state.journal.Close(); err != nil {
					state.logger.Warn().Err(err).Msg("closing journal")
				}
			}
		},
	}
)

func init() {
	flags := cmdRoot.PersistentFlags()
	flags.String("config", config.DefaultPath(), "Configuration file (JSON or YAML)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.String("log-level", "", "Diagnostic log level (trace, debug, info, warn, error)")
	flags.String("color", "", "Colour output: auto, always or never")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := cmdRoot.Execute(); err != nil {
		if state.out != nil {
			state.out.Error("%v", err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return err
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("color"); v != "" {
		cfg.ColorMode = v
	}
	if result := config.ValidateConfig(cfg); !result.Valid && cmd.Annotations[skipValidation] == "" {
		e := result.Errors[0]
		return &config.ConfigError{Type: config.ValidationError, Message: e.Field + ": " + e.Message}
	}

	verbose, _ := flags.GetBool("verbose")
	stderrTTY := term.IsTerminal(int(os.Stderr.Fd()))
	logger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		Color:   output.ResolveColor(cfg.ColorMode, stderrTTY),
	})
	if err != nil {
		return err
	}

	outCfg := output.DefaultConfig()
	outCfg.Verbose = verbose
	outCfg.Color = output.ResolveColor(cfg.ColorMode, outCfg.IsTTY)

	flags.Visit(func(f *pflag.Flag) {
		log.Debug().Str("flag", f.Name).Str("value", f.Value.String()).Msg("flag set")
	})

	sess := session.New(cfg.UndoDepth)
	sess.SetMode(cfg.ComposeMode())
	sess.SetArtist(cfg.Artist)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithScanOptions(cfg.ScanOptions()),
	}
	var journal *audit.Writer
	if cfg.Journal != nil && cfg.Journal.Enabled {
		journal, err = audit.NewWriter(*cfg.Journal, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("journal disabled")
		} else {
			opts = append(opts, orchestrator.WithJournal(journal))
			logger.Debug().Str("path", journal.LogPath()).Msg("journal open")
		}
	}

	state = app{
		cfg:     cfg,
		logger:  logger,
		out:     output.New(outCfg),
		orch:    orchestrator.New(sess, tagstore.NewRouter(), opts...),
		journal: journal,
	}
	return nil
}

// modeValue is a pflag.Value accepting the naming modes.
type modeValue struct {
	mode *composer.Mode
}

func (v modeValue) String() string {
	if v.mode == nil {
		return ""
	}
	return string(*v.mode)
}

func (v modeValue) Set(s string) error {
	m, err := composer.ParseMode(s)
	if err != nil {
		return err
	}
	*v.mode = m
	return nil
}

func (modeValue) Type() string { return "mode" }

// namingFlags are the flags shared by commands that compute names.
type namingFlags struct {
	mode   composer.Mode
	artist string
}

func (n *namingFlags) register(flags *pflag.FlagSet) {
	flags.VarP(modeValue{&n.mode}, "mode", "m", "Naming mode: artist or title-only")
	flags.StringVarP(&n.artist, "artist", "a", "", "Artist to use instead of the files' tags")
}

// apply copies the flags that were set onto the session.
func (n *namingFlags) apply(cmd *cobra.Command) {
	sess := state.orch.Session()
	if cmd.Flags().Changed("mode") {
		sess.SetMode(n.mode)
	}
	if cmd.Flags().Changed("artist") {
		sess.SetArtist(n.artist)
	}
}

// addPaths adds files and folders to the session.
func addPaths(paths []string) error {
	var errs []error
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.IsDir() {
			n, err := state.orch.AddFolder(p)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			state.out.Verbose("added %d files from %s", n, p)
			continue
		}
		state.orch.AddFiles(p)
	}
	if state.orch.Session().Len() == 0 && len(errs) == 0 {
		state.out.Info("No audio files found")
	}
	return errors.Join(errs...)
}

// pathsOrMusicDir returns args, or the configured music directory when no
// argument was given.
func pathsOrMusicDir(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return []string{state.cfg.MusicDirectory}
}
