package cmd

import (
	"io"
	"log/slog"

	er "github.com/mcorbin/corbierror"
)

// buildLogger accepts the slog level names (debug, info, warn, error) in
// any case.
func buildLogger(level string, format string, out io.Writer) (*slog.Logger, error) {
	var programLevel slog.Level
	err := programLevel.UnmarshalText([]byte(level))
	if err != nil {
		return nil, er.Newf("invalid log level %s (debug, info, warn, error)", er.BadRequest, true, level)
	}
	options := &slog.HandlerOptions{Level: programLevel}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(out, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, options)), nil
	}
	return nil, er.Newf("invalid log format %s (text, json)", er.BadRequest, true, format)
}
