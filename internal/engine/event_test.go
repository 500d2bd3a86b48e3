package engine

import "testing"

func TestEventInvokesEveryListener(t *testing.T) {
	var e Event
	calls := 0
	e.AddListener(func() { calls++ })
	e.AddListener(func() { calls += 10 })
	e.AddListener(nil)

	if e.GetListenerCount() != 2 {
		t.Errorf("Expected 2 listeners, got %d", e.GetListenerCount())
	}

	e.Invoke()
	if calls != 11 {
		t.Errorf("Expected 11, got %d", calls)
	}

	e.RemoveAllListeners()
	e.Invoke()
	if calls != 11 {
		t.Errorf("Expected no calls after RemoveAllListeners, got %d", calls)
	}
}

func TestEventWithArgPassesArgument(t *testing.T) {
	var e EventWithArg[string]
	var got string
	e.AddListener(func(s string) { got = s })
	e.Invoke("crate")
	if got != "crate" {
		t.Errorf("Expected crate, got %q", got)
	}
}
