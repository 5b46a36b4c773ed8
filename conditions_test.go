package server

import "testing"

func TestDOTStackExpiresExactlyOnSchedule(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	p := addTestPlayer(t, room, "victim", 0, 0)
	room.addDOT(p, 5, 3, "burner")

	dt := 0.5
	startHealth := p.Health
	for i := 1; i <= 6; i++ {
		room.tickDOTs(dt)
		if i < 6 && len(p.dots) != 1 {
			t.Fatalf("stack vanished early on update %d", i)
		}
	}
	if len(p.dots) != 0 {
		t.Fatal("stack should have expired exactly on the 6th update")
	}

	// 5 dps for 3 seconds, minus the tick on which it expired contributing
	// nothing: updates 1..5 each apply 5*0.5 damage.
	expected := 5.0 * 0.5 * 5
	if got := startHealth - p.Health; got != expected {
		t.Fatalf("expected %f total DOT damage, got %f", expected, got)
	}

	healthBefore := p.Health
	room.tickDOTs(dt)
	if p.Health != healthBefore {
		t.Fatal("expired stack must contribute zero DPS afterward")
	}
}

func TestDOTStacksSummedOncePerTick(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	p := addTestPlayer(t, room, "victim", 0, 0)
	room.addDOT(p, 4, 10, "a")
	room.addDOT(p, 6, 10, "b")

	before := p.Health
	room.tickDOTs(0.5)
	if got := before - p.Health; got != 5 {
		t.Fatalf("expected one summed application of (4+6)*0.5=5, got %f", got)
	}
}

func TestBurnStateEventsFireOnEdgesOnly(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	p := addTestPlayer(t, room, "victim", 0, 0)

	room.addDOT(p, 5, 1, "burner")
	if events := eventsOfType[vfxEventMessage](room); len(events) != 1 || !events[0].Active {
		t.Fatalf("expected one burn-on edge event, got %v", events)
	}

	// Ticking while still burning must not re-emit.
	room.tickDOTs(0.25)
	room.tickDOTs(0.25)
	if events := eventsOfType[vfxEventMessage](room); len(events) != 1 {
		t.Fatalf("mid-burn ticks re-emitted the event: %d events", len(events))
	}

	// Expiry crosses the burning→not-burning edge.
	room.tickDOTs(0.25)
	room.tickDOTs(0.25)
	events := eventsOfType[vfxEventMessage](room)
	if len(events) != 2 {
		t.Fatalf("expected exactly two edge events, got %d", len(events))
	}
	if events[1].Active {
		t.Fatal("second edge event should report burning off")
	}
}

func TestDOTNumberEventsAreThrottled(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	p := addTestPlayer(t, room, "victim", 0, 0)
	room.addDOT(p, 2, 60, "burner")

	// 2 dps at 60 Hz is 1/30 damage per tick; a half-second of ticks crosses
	// the threshold at most once thanks to the cooldown gate.
	dt := 1.0 / 60.0
	for i := 0; i < 120; i++ {
		room.tickDOTs(dt)
	}
	got := len(eventsOfType[healthUpdateMessage](room))
	// 2 seconds of 2 dps is 4 accumulated damage against a threshold of 3
	// and a 0.5s cooldown: exactly one pulse fires.
	if got != 1 {
		t.Fatalf("expected 1 throttled damage-number event, got %d", got)
	}
}

func TestEnsnareSlowEventOnEdgesOnly(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	p := addTestPlayer(t, room, "victim", 0, 0)

	p.ensnares["licker-1"] = 0.2
	room.integratePlayer(p, 1.0/60.0)
	if events := eventsOfType[slowStateMessage](room); len(events) != 1 || !events[0].Slowed {
		t.Fatalf("expected one slow-on event, got %v", events)
	}
	room.integratePlayer(p, 1.0/60.0)
	if events := eventsOfType[slowStateMessage](room); len(events) != 1 {
		t.Fatal("steady ensnare must not re-emit the slow event")
	}

	// Let it run out: slow-off edge.
	for i := 0; i < 60; i++ {
		room.integratePlayer(p, 1.0/60.0)
	}
	events := eventsOfType[slowStateMessage](room)
	if len(events) != 2 || events[1].Slowed {
		t.Fatalf("expected a final slow-off event, got %v", events)
	}
}
