package device

import "time"

// Field names a monitored boolean of the device state.
type Field string

const (
	FieldAlarmEnabled Field = "alarm_enabled"
	FieldFanEnabled   Field = "fan_enabled"
	FieldButtonA      Field = "button_a"
	FieldButtonB      Field = "button_b"
)

// Fields lists the monitored booleans in the order changes are reported.
var Fields = []Field{FieldAlarmEnabled, FieldFanEnabled, FieldButtonA, FieldButtonB}

// Change is an edge on one monitored field.
type Change struct {
	Timestamp time.Time
	Field     Field
	From      bool
	To        bool
}

// Status labels shown on the status page.
const (
	LabelOn       = "LIGADO"
	LabelOff      = "DESLIGADO"
	LabelPressed  = "PRESSIONADO"
	LabelReleased = "LIVRE"
)

// OnOffLabel returns the label for an enabled flag.
func OnOffLabel(on bool) string {
	if on {
		return LabelOn
	}
	return LabelOff
}

// ButtonLabel returns the label for a button state.
func ButtonLabel(pressed bool) string {
	if pressed {
		return LabelPressed
	}
	return LabelReleased
}
