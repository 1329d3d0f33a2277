package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(ChargeStarted)
	other := b.Subscribe(DeliveryScheduled)

	evt := Event{Type: ChargeStarted, DroneID: "000", At: time.Now()}
	if err := b.Publish(context.Background(), evt); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case got := <-sub:
		if got.DroneID != "000" || got.Type != ChargeStarted {
			t.Fatalf("unexpected event: %+v", got)
		}
	default:
		t.Fatalf("subscriber did not receive event")
	}
	select {
	case got := <-other:
		t.Fatalf("unrelated subscriber got %+v", got)
	default:
	}

	b.Unsubscribe(ChargeStarted, sub)
	if _, open := <-sub; open {
		t.Fatalf("expected closed subscriber")
	}
}

func TestBus_PublishRacesUnsubscribe(t *testing.T) {
	b := NewBus()
	ctx := context.Background()
	for i := 0; i < 500; i++ {
		sub := b.Subscribe(ChargeStarted)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = b.Publish(ctx, Event{Type: ChargeStarted, DroneID: "000"})
			}
		}()
		go func() {
			defer wg.Done()
			b.Unsubscribe(ChargeStarted, sub)
		}()
		wg.Wait()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n := len(b.subs[ChargeStarted]); n != 0 {
		t.Fatalf("subscribers left: %d", n)
	}
}

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

func TestMulti_ReturnsFirstErrorAndFansOut(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(DayPlanReset)
	boom := errors.New("boom")
	m := Multi{failing{boom}, b, Nop{}}
	if err := m.Publish(context.Background(), Event{Type: DayPlanReset, DroneID: "001"}); !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if len(sub) != 1 {
		t.Fatalf("bus not reached after failing publisher")
	}
}
