package bowtie

import (
	"log/slog"

	"github.com/gogpu/bowtie/render"
)

// SetLogger configures the logger for bowtie and all its sub-packages.
// By default, bowtie produces no log output. Pass nil to restore silent
// logging.
//
// SetLogger is safe for concurrent use.
//
// Log levels used by bowtie:
//   - [slog.LevelDebug]: command batches, resource loads
//   - [slog.LevelInfo]: renderer lifecycle, selected backend
//   - [slog.LevelWarn]: non-fatal backend degradations
//
// Example:
//
//	bowtie.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	render.SetLogger(l)
}

// Logger returns the current logger. Packages below the root read the same
// logger through render.Logger.
func Logger() *slog.Logger {
	return render.Logger()
}
