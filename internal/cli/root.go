package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/wikitrust/internal/model"
)

// Version is overridden at build time with -ldflags
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool

	// cfg is the merged configuration, loaded before any command runs
	cfg = model.DefaultConfig()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wikitrust",
	Short: "wikitrust - Wiki revision trust scoring (heuristic, non-normative)",
	Long: `wikitrust reads the public revision history of a wiki article and turns it
into a 0-100 confidence score with a risk tier and short reasons.

It looks at editor diversity, anonymous edits, reverts and disputes,
recent churn, page age and who wrote the bulk of the text.

It does not judge whether the article is true. A low score means the
history looks unsettled, not that the content is wrong.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if used := viper.ConfigFileUsed(); verbose && used != "" {
			if _, err := os.Stat(used); err == nil {
				fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
			}
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of wikitrust.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wikitrust v%s\n", Version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.wikitrust/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("lang", "en", "label language (en, fr)")
	flags.String("wiki", "https://en.wikipedia.org", "wiki base URL")

	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("output.language", flags.Lookup("lang"))
	_ = viper.BindPFlag("wiki.base_url", flags.Lookup("wiki"))

	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers the config file and WIKITRUST_* variables over the
// defaults. A missing default config file is not an error; a missing
// explicit one is.
func loadConfig(v *viper.Viper, file string) (*model.Config, error) {
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := file != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			file = filepath.Join(home, ".wikitrust", "config.yaml")
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}

	v.SetEnvPrefix("WIKITRUST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Proxy keys are omitted from the defaults when empty
	_ = v.BindEnv("wiki.http_proxy")
	_ = v.BindEnv("wiki.https_proxy")

	loaded := &model.Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return loaded, nil
}

// newLogger builds the zerolog logger described by the logging section
func newLogger(lc model.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if lc.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
