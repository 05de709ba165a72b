package cmd

import (
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "nestrack"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	sampleRateFlagName   = "sample-rate"
	blockSizeFlagName    = "block-size"
	verboseFlagName      = "verbose"
	logFileFlagName      = "log-file"
	midiInputFlagName    = "midi-input"
	recoveryFileFlagName = "recovery-file"

	sampleRateKey   = "audio.sample_rate"
	blockSizeKey    = "audio.block_size"
	midiInputKey    = "audio.midi_input"
	recoveryFileKey = "session.recovery_file"

	defaultSampleRate = 44100
	defaultBlockSize  = 512

	envPrefix = "NESTRACK"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".nestrack.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(sampleRateKey, defaultSampleRate)
	viper.SetDefault(blockSizeKey, defaultBlockSize)
	viper.SetDefault(midiInputKey, "")
	viper.SetDefault(recoveryFileKey, "")

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, false)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	// a missing or unreadable config file leaves the defaults in place
	_ = viper.ReadInConfig()
}

// parseSlogLevel accepts the level names of slog as well as numeric levels.
func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	switch level {
	case "":
		return defaultLevel
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}
	return defaultLevel
}

// configureLogger sets the default slog logger to a text handler writing to
// a rotated log file. verbose forces the Debug level.
func configureLogger(logPath string, verbose bool) *slog.Logger {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}
	level := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose || viper.GetBool(logVerboseKey) {
		level = slog.LevelDebug
	}
	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}
	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
	slog.SetDefault(logger)
	return logger
}

// audioSettings returns the sample rate and block size from flags, config or
// environment.
func audioSettings() (sampleRate, blockSize int, err error) {
	sampleRate, blockSize = viper.GetInt(sampleRateKey), viper.GetInt(blockSizeKey)
	if sampleRate <= 0 {
		return 0, 0, errors.Newf("invalid sample rate %d", sampleRate)
	}
	if blockSize <= 0 {
		return 0, 0, errors.Newf("invalid block size %d", blockSize)
	}
	return sampleRate, blockSize, nil
}
