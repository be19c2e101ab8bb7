package sink

import (
	"log/slog"

	"grid_go/internal/domain"
)

// Sink receives the strategy state published after every processed event.
// Publication is unconditional: sleeping cycles and no-op evaluations
// publish the same as trading cycles.
type Sink interface {
	Publish(view domain.GridStateView)
}

// LogSink writes each published state to the structured log at debug
// level, promoting sleep transitions to info.
type LogSink struct {
	lastSleep map[string]bool
}

// NewLogSink creates a log-backed sink.
func NewLogSink() *LogSink {
	return &LogSink{lastSleep: make(map[string]bool)}
}

func (s *LogSink) Publish(view domain.GridStateView) {
	attrs := []any{
		slog.String("symbol", view.Symbol),
		slog.Float64("position", view.Position),
		slog.Float64("trigger", view.TriggerPrice),
		slog.Bool("touch_up", view.TouchUp),
		slog.Bool("touch_dn", view.TouchDn),
		slog.Bool("grid_sleep", view.GridSleep),
	}
	if was, ok := s.lastSleep[view.Symbol]; ok && was != view.GridSleep {
		slog.Info("Grid sleep state changed", attrs...)
	} else {
		slog.Debug("State published", attrs...)
	}
	s.lastSleep[view.Symbol] = view.GridSleep
}

// MultiSink fans one publication out to several sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink composes sinks, skipping nils.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) Publish(view domain.GridStateView) {
	for _, s := range m.sinks {
		s.Publish(view)
	}
}
