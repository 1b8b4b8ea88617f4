package control

import (
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/cabin-monitor/internal/device"
)

// ChangeLogger reports edges on the monitored flags.
type ChangeLogger struct {
	log *zap.Logger
}

// NewChangeLogger creates a ChangeLogger writing to log.
func NewChangeLogger(log *zap.Logger) *ChangeLogger {
	return &ChangeLogger{log: log}
}

// Log compares each flag with its previous value, logs one line per edge,
// and brings the previous values up to date.
func (c *ChangeLogger) Log(s *device.State, now time.Time) []device.Change {
	var changes []device.Change
	for _, field := range device.Fields {
		prev, cur := s.Prev.Get(field), s.Flags.Get(field)
		if prev == cur {
			continue
		}
		c.log.Info("state changed",
			zap.String("field", string(field)),
			zap.String("from", label(field, prev)),
			zap.String("to", label(field, cur)),
		)
		changes = append(changes, device.Change{Timestamp: now, Field: field, From: prev, To: cur})
		s.Prev.Set(field, cur)
	}
	return changes
}

func label(field device.Field, v bool) string {
	if field == device.FieldButtonA || field == device.FieldButtonB {
		return device.ButtonLabel(v)
	}
	return device.OnOffLabel(v)
}
