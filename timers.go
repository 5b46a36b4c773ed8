package server

// gameTimer is the shared countdown shape used by the ready timer, the
// extraction timer, and chest-opening timers. Once started it only counts
// down; scene transitions reset it.
type gameTimer struct {
	Started   bool
	Completed bool
	TimeLeft  float64
	TimeTotal float64
	StartedBy string
}

// start arms the timer; starting an already-running timer is a no-op so the
// original initiator is preserved.
func (t *gameTimer) start(total float64, by string) {
	if t.Started && !t.Completed {
		return
	}
	t.Started = true
	t.Completed = false
	t.TimeLeft = total
	t.TimeTotal = total
	t.StartedBy = by
}

// update counts down and reports true exactly once, on the tick the timer
// completes.
func (t *gameTimer) update(dt float64) bool {
	if !t.Started || t.Completed {
		return false
	}
	t.TimeLeft -= dt
	if t.TimeLeft <= 0 {
		t.TimeLeft = 0
		t.Completed = true
		return true
	}
	return false
}

func (t *gameTimer) reset() {
	*t = gameTimer{}
}

func (t *gameTimer) view() TimerView {
	return TimerView{
		Started:   t.Started,
		Completed: t.Completed,
		TimeLeft:  t.TimeLeft,
		TimeTotal: t.TimeTotal,
		StartedBy: t.StartedBy,
	}
}
