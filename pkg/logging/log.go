package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func SetupLogger() {
	log.Logger = zerolog.New(consoleWriter()).With().Timestamp().Logger()
}

// AddLogFile attaches a secondary plain-text writer to the global logger.
// The console output is unchanged.
func AddLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening log file %s: %w", path, err)
	}
	multi := zerolog.MultiLevelWriter(consoleWriter(), f)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	return nil
}

func GetLogger() zerolog.Logger {
	return log.Logger
}

func consoleWriter() zerolog.ConsoleWriter {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("[ %s ]", i)
	}
	return output
}
