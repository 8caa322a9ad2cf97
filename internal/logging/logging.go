// Package logging wires up the process-wide zerolog logger: console
// output for humans, a session log file for post-mortems, and an
// optional GELF stream when a Graylog endpoint is configured.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// Setup configures the global log level and returns a logger writing
// to stdout and the given file. When graylog.enabled is set, a GELF
// writer is attached as a third sink; a failed Graylog connection is
// logged and skipped rather than treated as fatal.
func Setup(file *os.File) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(viper.GetString("logLevel")))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	if viper.GetBool("graylog.enabled") {
		gw, err := gelf.NewWriter(viper.GetString("graylog.address"))
		if err != nil {
			log.Warn().Err(err).Str("address", viper.GetString("graylog.address")).
				Msg("Failed to connect to Graylog, continuing without it")
		} else {
			writers = append(writers, gw)
			log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
		}
	}

	log.Info().Str("loglevel", zerolog.GlobalLevel().String()).Msg("Logging set up")
	return log
}

// OpenSessionLogFile creates the logs directory if needed and opens a
// fresh session log, rotating any file already at that path to .old.
func OpenSessionLogFile(logsDir, appName string, sessionStart time.Time) (*os.File, error) {
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
	}

	path := LogFilePath(logsDir, appName, sessionStart)
	if _, err := os.Stat(path); err == nil {
		os.Rename(path, path+".old")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

// RemoveOldLogs deletes .log files in path older than daysDelta days.
func RemoveOldLogs(path string, daysDelta int, log zerolog.Logger) {
	files, err := os.ReadDir(path)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read logs dir")
		return
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".log" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to get file info")
			continue
		}
		if time.Since(info.ModTime()).Hours() > float64(daysDelta*24) {
			os.Remove(filepath.Join(path, f.Name()))
		}
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
