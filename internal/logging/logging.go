package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global zerolog logger. Pretty output goes through a
// console writer; otherwise lines are JSON on stderr.
func Init(appName, level string, pretty bool) error {
	return InitWithWriter(os.Stderr, appName, level, pretty)
}

func InitWithWriter(out io.Writer, appName, level string, pretty bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		parts := strings.Split(file, "/")
		return parts[len(parts)-1] + ":" + strconv.Itoa(line)
	}

	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "02-01-2006 15:04:05.000",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-6s", i))
			},
			FieldsExclude: []string{"app"},
		}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Str("app", appName).Logger()
	log.Debug().Msgf("logger initialized at %s", lvl)
	return nil
}

// ParseLevel accepts zerolog level names in any case; empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("incorrect log level %q: %w", level, err)
	}
	return lvl, nil
}
