// Package cmd provides the root command and CLI setup for nestrack.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/decode"
	"github.com/nestrack/nestrack/session"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	verboseFlag bool
	logFileFlag string
	logger      = slog.Default()
)

const rootLongDescription = `nestrack edits and plays multitrack sessions: a tree of tracks holding
audio clips and groups holding tracks or other groups, each with its own
gain, pan and plugin chain.

Nodes are addressed by routes: dot separated indices starting from the
top-level list, e.g. 0.2.1 is the second child of the third child of the
first top-level node.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "nestrack",
		Short:         "Nested multitrack session tool",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger = configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "log file (default from config, "+defaultLogFilename+")")

	cmd.PersistentFlags().Int(sampleRateFlagName, viper.GetInt(sampleRateKey), "sample rate in Hz")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(sampleRateFlagName), sampleRateKey)

	cmd.PersistentFlags().Int(blockSizeFlagName, viper.GetInt(blockSizeKey), "render block size in samples")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(blockSizeFlagName), blockSizeKey)

	cmd.PersistentFlags().String(recoveryFileFlagName, viper.GetString(recoveryFileKey), "file where the session is saved for crash recovery")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(recoveryFileFlagName), recoveryFileKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openSession loads the session file at path. Clip paths are relative to
// the directory of the file. Warnings about malformed records are printed to
// the error stream of cmd.
func openSession(cmd *cobra.Command, path string) (*session.Session, error) {
	s := session.New(session.Collaborators{
		Decoder:          decode.Files{Dir: filepath.Dir(path)},
		Logger:           logger,
		RecoveryFilePath: viper.GetString(recoveryFileKey),
	})
	warnings, err := s.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		cmd.PrintErrln("warning:", w)
	}
	return s, nil
}

// saveSession writes s back to output, or to the file it was loaded from if
// output is empty.
func saveSession(s *session.Session, output string) error {
	if output == "" {
		output = s.FilePath()
	}
	return s.SaveFile(output)
}

func parseRoutes(args ...string) ([]nestrack.Route, error) {
	ret := make([]nestrack.Route, len(args))
	for i, a := range args {
		r, err := nestrack.ParseRoute(a)
		if err != nil {
			return nil, err
		}
		ret[i] = r
	}
	return ret, nil
}
