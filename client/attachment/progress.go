package attachment

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// progressWriter logs transfer progress at most once per second.
type progressWriter struct {
	w           io.Writer
	logger      *slog.Logger
	name        string
	transferred int64
	total       int64
	startTime   time.Time
	every       rate.Sometimes
}

func newProgressWriter(w io.Writer, logger *slog.Logger, name string, total int64) *progressWriter {
	return &progressWriter{
		w:         w,
		logger:    logger,
		name:      name,
		total:     total,
		startTime: time.Now(),
		every:     rate.Sometimes{First: 1, Interval: time.Second},
	}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	pw.every.Do(func() { pw.log("saving attachment") })

	if pw.total >= 0 && pw.transferred == pw.total {
		pw.log("attachment saved")
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	attrs := []any{
		"file", pw.name,
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pw.transferred,
	}
	if pw.total > 0 {
		attrs = append(attrs,
			"progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100),
			"total", pw.total,
		)
	}
	pw.logger.Info(msg, attrs...)
}
