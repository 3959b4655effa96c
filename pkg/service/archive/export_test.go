package archive

import "time"

// SetClock replaces the clock used to name objects
func (e *Exporter) SetClock(now func() time.Time) {
	e.now = now
}
