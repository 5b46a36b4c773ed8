package server

import "testing"

func TestTimerCompletesExactlyOnce(t *testing.T) {
	t.Parallel()

	var timer gameTimer
	timer.start(1, "p1")

	completions := 0
	for i := 0; i < 120; i++ {
		if timer.update(1.0 / 60.0) {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("timer reported completion %d times", completions)
	}
	if timer.TimeLeft != 0 {
		t.Fatalf("completed timer left TimeLeft at %f", timer.TimeLeft)
	}
}

func TestTimerRestartWhileRunningIsNoOp(t *testing.T) {
	t.Parallel()

	var timer gameTimer
	timer.start(10, "p1")
	timer.update(2)
	timer.start(10, "p2")

	if timer.StartedBy != "p1" {
		t.Fatalf("running timer lost its initiator: %q", timer.StartedBy)
	}
	if timer.TimeLeft != 8 {
		t.Fatalf("restart reset a running timer: %f left", timer.TimeLeft)
	}
}

func TestTimerRestartsAfterCompletion(t *testing.T) {
	t.Parallel()

	var timer gameTimer
	timer.start(1, "p1")
	timer.update(2)
	timer.start(5, "p2")

	if timer.Completed || timer.StartedBy != "p2" || timer.TimeLeft != 5 {
		t.Fatalf("completed timer did not rearm: %+v", timer)
	}
}

func TestIdleTimerNeverCompletes(t *testing.T) {
	t.Parallel()

	var timer gameTimer
	if timer.update(100) {
		t.Fatal("unstarted timer completed")
	}
}
