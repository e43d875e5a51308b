package sinks

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/WakiJi/wmscan/internal/progress"
)

// ConsoleSink renders scan progress for an interactive terminal: green hit
// lines, per-date progress, and a summary table once the run finishes.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer

	hit  *color.Color
	info *color.Color
	warn *color.Color

	probes  int64
	hits    int64
	dates   int64
	classes map[progress.StatusClass]int64
}

// NoColorRequested reports whether the environment asks for plain output,
// honoring both NO_COLOR and CI=true.
func NoColorRequested() bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	return strings.EqualFold(os.Getenv("CI"), "true")
}

// NewConsoleSink builds a console renderer writing to w. Pass noColor to
// force plain output regardless of terminal support.
func NewConsoleSink(w io.Writer, noColor bool) *ConsoleSink {
	s := &ConsoleSink{
		w:       w,
		hit:     color.New(color.FgGreen, color.Bold),
		info:    color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
		classes: make(map[progress.StatusClass]int64),
	}
	if noColor {
		s.hit.DisableColor()
		s.info.DisableColor()
		s.warn.DisableColor()
	}
	return s
}

// Consume renders each event in the batch.
func (s *ConsoleSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.render(evt)
	}
	return nil
}

func (s *ConsoleSink) render(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		if evt.Probes > 0 {
			s.info.Fprintf(s.w, "run %s: probing %s candidates\n", evt.RunUUID(), humanize.Comma(evt.Probes))
			return
		}
		s.info.Fprintf(s.w, "run %s started\n", evt.RunUUID())
	case progress.StageDateStart:
		s.info.Fprintf(s.w, "date %s: %s targets\n", evt.Date, humanize.Comma(evt.Probes))
	case progress.StageProbeDone:
		s.probes++
		class := evt.StatusClass
		if class == "" {
			class = progress.StatusOther
		}
		s.classes[class]++
		switch {
		case evt.Valid:
			s.hits++
			s.hit.Fprintf(s.w, "HIT %s (%s)\n", evt.URL, evt.Dur.Round(time.Millisecond))
		case class == progress.StatusOther && evt.Note != "":
			s.warn.Fprintf(s.w, "probe failed %s: %s\n", evt.URL, evt.Note)
		}
	case progress.StageDateDone:
		s.dates++
		s.info.Fprintf(s.w, "date %s done: %s probes, %s hits\n",
			evt.Date, humanize.Comma(evt.Probes), humanize.Comma(evt.Hits))
	case progress.StageCheckpoint:
		s.warn.Fprintf(s.w, "time budget low: progress saved, next run resumes at %s\n", evt.Date)
	case progress.StageRunDone:
		s.renderSummary(evt)
	}
}

func (s *ConsoleSink) renderSummary(evt progress.Event) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"run time", evt.Dur.Round(time.Second).String()},
		{"dates completed", humanize.Comma(s.dates)},
		{"probes", humanize.Comma(s.probes)},
		{"valid links", humanize.Comma(s.hits)},
	})
	for _, class := range []progress.StatusClass{
		progress.Status2xx,
		progress.Status3xx,
		progress.Status4xx,
		progress.Status5xx,
		progress.StatusOther,
	} {
		if n := s.classes[class]; n > 0 {
			tw.AppendRow(table.Row{"status " + string(class), humanize.Comma(n)})
		}
	}
	fmt.Fprintln(s.w, tw.Render())
	if evt.Note != "" {
		s.warn.Fprintf(s.w, "%s\n", evt.Note)
	}
}

// Close implements the Sink interface; it performs no action.
func (s *ConsoleSink) Close(context.Context) error {
	return nil
}
