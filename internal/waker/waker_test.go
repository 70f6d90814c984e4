package waker

import (
	"testing"
	"time"
)

func TestWakeClosesParkedChannel(t *testing.T) {
	var s Slot
	ch := s.Park()

	select {
	case <-ch:
		t.Fatalf("channel closed before Wake was called")
	default:
	}

	s.Wake()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("channel did not close after Wake")
	}
}

func TestWakeWithNoWaiterIsNoop(t *testing.T) {
	var s Slot
	s.Wake() // must not panic
}

func TestParkReplacesPreviousWaiter(t *testing.T) {
	var s Slot
	ch1 := s.Park()
	ch2 := s.Park()
	s.Wake()

	select {
	case <-ch2:
	case <-time.After(time.Second):
		t.Fatalf("most recently parked channel did not close")
	}

	select {
	case <-ch1:
		t.Fatalf("stale parked channel should not be closed by a later Wake")
	default:
	}
}
