package cita

import (
	"testing"
	"time"
)

func TestFolioFormat(t *testing.T) {
	ts := time.Date(2026, 1, 5, 9, 3, 7, 0, time.Local)
	if got := Folio(ts); got != "CITA-20260105-090307" {
		t.Errorf("Folio = %q", got)
	}
}

func TestFolioZeroPadding(t *testing.T) {
	ts := time.Date(2026, 11, 30, 23, 59, 59, 0, time.Local)
	if got := Folio(ts); got != "CITA-20261130-235959" {
		t.Errorf("Folio = %q", got)
	}
}
