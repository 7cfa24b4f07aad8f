package core_test

import (
	"testing"

	"agency-pipeline/internal/core"
)

var allStatuses = []core.SetStatus{
	core.StatusAgendado, core.StatusPrecallEnviado, core.StatusReagendo,
	core.StatusNoShow, core.StatusSeguimiento, core.StatusDescalificado,
	core.StatusClosed, core.StatusClosedPendiente,
}

// allowed mirrors the transition table; the test cross-checks every ordered
// pair against it so an accidental table edit shows up as a diff here.
var allowed = map[core.SetStatus][]core.SetStatus{
	core.StatusAgendado: {
		core.StatusPrecallEnviado, core.StatusReagendo, core.StatusNoShow,
		core.StatusSeguimiento, core.StatusDescalificado, core.StatusClosed, core.StatusClosedPendiente,
	},
	core.StatusPrecallEnviado: {
		core.StatusReagendo, core.StatusNoShow, core.StatusSeguimiento,
		core.StatusDescalificado, core.StatusClosed, core.StatusClosedPendiente,
	},
	core.StatusReagendo: {
		core.StatusAgendado, core.StatusPrecallEnviado, core.StatusNoShow,
		core.StatusSeguimiento, core.StatusDescalificado, core.StatusClosed, core.StatusClosedPendiente,
	},
	core.StatusNoShow: {
		core.StatusReagendo, core.StatusSeguimiento, core.StatusDescalificado,
	},
	core.StatusSeguimiento: {
		core.StatusAgendado, core.StatusReagendo, core.StatusDescalificado,
		core.StatusClosed, core.StatusClosedPendiente,
	},
	core.StatusDescalificado:   {},
	core.StatusClosed:          {},
	core.StatusClosedPendiente: {core.StatusClosed},
}

func TestCanTransition_FullTable(t *testing.T) {
	for _, from := range allStatuses {
		allowedSet := map[core.SetStatus]bool{}
		for _, to := range allowed[from] {
			allowedSet[to] = true
		}
		for _, to := range allStatuses {
			got := core.CanTransition(from, to)
			if got != allowedSet[to] {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, allowedSet[to])
			}
		}
	}
}

func TestCanTransition_SelfLoopsRejected(t *testing.T) {
	for _, s := range allStatuses {
		if core.CanTransition(s, s) {
			t.Errorf("self transition %s → %s must be rejected", s, s)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[core.SetStatus]bool{
		core.StatusDescalificado: true,
		core.StatusClosed:        true,
	}
	for _, s := range allStatuses {
		if core.IsTerminal(s) != terminal[s] {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, core.IsTerminal(s), terminal[s])
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range allStatuses {
		if !core.ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false, want true", s)
		}
	}
	for _, s := range []core.SetStatus{"", "cerrado", "CLOSED", "agendado "} {
		if core.ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}
