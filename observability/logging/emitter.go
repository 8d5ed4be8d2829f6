package logging

import (
	"log/slog"

	"patchdao/core/events"
	"patchdao/core/types"
)

// Emitter logs every protocol event as one structured line. It is the
// injected replacement for the console styling the escrow engine must not
// own itself.
type Emitter struct {
	log *slog.Logger
}

// NewEmitter wraps the given logger; a nil logger falls back to the default.
func NewEmitter(log *slog.Logger) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{log: log}
}

type payloadCarrier interface {
	Event() *types.Event
}

// Emit implements the events.Emitter interface.
func (e *Emitter) Emit(evt events.Event) {
	if e == nil || e.log == nil || evt == nil {
		return
	}
	attrs := []any{}
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	e.log.Info(evt.EventType(), attrs...)
}
