package alerts

import (
	"errors"
	"testing"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func testDefs() []Definition {
	return []Definition{
		{Name: "Bitfinex Funding", Threshold: "> 75 bps"},
		{Name: "Deribit Funding", Threshold: "< -25 bps"},
		{Name: "IBIT Premium", Threshold: "> 1.5%"},
	}
}

func TestListKeepsConfigurationOrder(t *testing.T) {
	m := NewManager(testDefs(), nil)

	got := m.List()
	if len(got) != 3 {
		t.Fatalf("alerts = %d, want 3", len(got))
	}
	want := []string{"Bitfinex Funding", "Deribit Funding", "IBIT Premium"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("alerts[%d] = %s, want %s", i, got[i].Name, name)
		}
		if got[i].Triggered {
			t.Errorf("alerts[%d] starts triggered", i)
		}
	}
}

func TestSetTriggered(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(testDefs(), fixedClock{now: now})

	status, err := m.SetTriggered("Deribit Funding", true)
	if err != nil {
		t.Fatalf("SetTriggered: %v", err)
	}
	if !status.Triggered {
		t.Error("status not triggered")
	}
	if status.LastTriggered == nil || !status.LastTriggered.Equal(now) {
		t.Errorf("LastTriggered = %v, want %v", status.LastTriggered, now)
	}
	if m.TriggeredCount() != 1 {
		t.Errorf("TriggeredCount = %d, want 1", m.TriggeredCount())
	}

	// Clearing keeps the trigger history.
	status, err = m.SetTriggered("Deribit Funding", false)
	if err != nil {
		t.Fatalf("SetTriggered: %v", err)
	}
	if status.Triggered {
		t.Error("status still triggered after clear")
	}
	if status.LastTriggered == nil {
		t.Error("LastTriggered cleared, want retained")
	}
	if m.TriggeredCount() != 0 {
		t.Errorf("TriggeredCount = %d, want 0", m.TriggeredCount())
	}
}

func TestSetTriggeredUnknown(t *testing.T) {
	m := NewManager(testDefs(), nil)

	_, err := m.SetTriggered("Nope", true)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SetTriggered = %v, want ErrNotFound", err)
	}
}

func TestListReturnsCopy(t *testing.T) {
	m := NewManager(testDefs(), nil)

	got := m.List()
	got[0].Triggered = true

	if m.TriggeredCount() != 0 {
		t.Error("mutating the List result must not affect the manager")
	}
}
