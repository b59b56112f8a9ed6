package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/ppiankov/termslens/internal/logging"
	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	// cfg is the effective configuration, loaded before any command runs
	cfg       *model.Config
	logCloser io.Closer = nopCloser{}
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "termslens",
	Short: "Termslens - plain-language summaries of API terms and documentation",
	Long: `Termslens reads the terms, rules and documentation page of an API or
website and explains what it means for different kinds of users: what data
is collected, what you are agreeing to, what you may and may not do.

After an analysis you can keep asking follow-up questions about the same
page. Answers are grounded in the analysis, not in general knowledge.

Run 'termslens serve' to start the analysis backend and 'termslens chat'
to use it interactively.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		cfg = loaded
		setupLogging(cfg.Logging)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logCloser.Close()
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
	Long:  `Display the version number of termslens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("termslens %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.termslens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("backend", "", "analysis backend URL (default: "+model.DefaultBackendURL+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("client.backend_url", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and TERMSLENS_* variables
func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, model.HomeDirName))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setupLogging (re)configures the standard logger. A previously opened log
// file is closed.
func setupLogging(lc model.LoggingConfig) {
	_ = logCloser.Close()
	logCloser = logging.Init(lc)
	logrus.WithField("level", logrus.GetLevel().String()).Debug("Logging configured")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
