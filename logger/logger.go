package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	log zerolog.Logger

	DurationAsString  = true
	DurationFieldName = "dur"

	EmptyMessage = ""
)

func init() {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	SetConsoleWriter()
}

func Log() *zerolog.Logger {
	return &log
}

func SetConsoleWriter() {
	log = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
		w.FormatLevel = consoleDefaultFormatLevel(false)
		w.TimeFormat = "15:04:05.000"
	}))
}

func SetJsonWriter() {
	log = zerolog.New(os.Stderr)
}

func SetWriter(w io.Writer) {
	log = zerolog.New(w)
}

// SetLevel accepts the level names used in LOG_LEVEL.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "trace", "verbose", "verb":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "", "info", "notice":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "quiet", "silent":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		return errors.Errorf("invalid log level %q", level)
	}
	return nil
}

// Configure picks the writer ("console" or "json") and the level.
func Configure(format, level string) error {
	switch strings.ToLower(format) {
	case "", "console":
		SetConsoleWriter()
	case "json":
		SetJsonWriter()
	default:
		return errors.Errorf("invalid log format %q", format)
	}
	return SetLevel(level)
}

// doLog turns args into fields. A leading error becomes the error field, the
// rest are read as key/value pairs; a trailing lone string is the message.
func doLog(event *zerolog.Event, args []interface{}) {
	event.Timestamp()

	if len(args) > 0 {
		if err, ok := args[0].(error); ok {
			event.Err(err)
			args = args[1:]
		}
	}

	msg := EmptyMessage
	for i := 0; i < len(args); i += 2 {
		// a bare duration in key position goes under DurationFieldName
		if d, ok := args[i].(time.Duration); ok {
			appendDuration(event, DurationFieldName, d)
			i--
			continue
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}

		if i+1 == len(args) {
			msg = key
			break
		}

		switch v := args[i+1].(type) {
		case string:
			event.Str(key, v)
		case int:
			event.Int(key, v)
		case int64:
			event.Int64(key, v)
		case uint32:
			event.Uint32(key, v)
		case uint64:
			event.Uint64(key, v)
		case float64:
			event.Float64(key, v)
		case bool:
			event.Bool(key, v)
		case error:
			event.AnErr(key, v)
		case time.Duration:
			appendDuration(event, key, v)
		default:
			event.Interface(key, v)
		}
	}

	event.Msg(msg)
}

func appendDuration(event *zerolog.Event, key string, d time.Duration) {
	if DurationAsString {
		event.Str(key, d.String())
	} else {
		event.Dur(key, d)
	}
}

func Trace(args ...interface{}) {
	doLog(log.Trace(), args)
}

func Debug(args ...interface{}) {
	doLog(log.Debug(), args)
}

func Info(args ...interface{}) {
	doLog(log.Info(), args)
}

func Warn(args ...interface{}) {
	doLog(log.Warn(), args)
}

func Error(args ...interface{}) {
	doLog(log.Error(), args)
}

// Fatal logs and exits with status 1.
func Fatal(args ...interface{}) {
	doLog(log.WithLevel(zerolog.FatalLevel), args)
	os.Exit(1)
}
