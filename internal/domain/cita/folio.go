package cita

import "time"

// Folio builds the human-readable appointment reference for a booking
// timestamp: CITA-YYYYMMDD-HHMMSS. Two bookings within the same second share
// a folio; id_cita remains the unique key.
func Folio(t time.Time) string {
	return t.Format("CITA-20060102-150405")
}
