package autoclicker

import (
	"testing"
	"time"
)

func TestEventQueuePreservesOrderAndNeverBlocksPush(t *testing.T) {
	q := newEventQueue()
	release := make(chan struct{})
	got := make(chan int, 1000)

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.drain(func(ev RunEvent) {
			<-release
			got <- ev.Clicks
		})
	}()

	start := time.Now()
	for i := 1; i <= 500; i++ {
		if !q.push(RunEvent{Kind: EventTick, Clicks: i}) {
			t.Fatalf("push(%d) rejected", i)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("push blocked behind a stalled consumer for %v", elapsed)
	}

	close(release)
	q.close()
	<-done
	close(got)

	want := 1
	for v := range got {
		if v != want {
			t.Fatalf("delivered %d, want %d", v, want)
		}
		want++
	}
	if want != 501 {
		t.Fatalf("delivered %d events, want 500", want-1)
	}
}

func TestEventQueueRejectsAfterClose(t *testing.T) {
	q := newEventQueue()
	q.close()
	if q.push(RunEvent{Kind: EventStopped}) {
		t.Fatalf("push after close should be rejected")
	}
}
