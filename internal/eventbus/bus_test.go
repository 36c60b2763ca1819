package eventbus

import (
	"testing"

	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

func TestBus_DispatchInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string

	b.Subscribe(models.EventStepStarted, func(models.Event) { order = append(order, "first") })
	b.Subscribe(models.EventStepStarted, func(models.Event) { order = append(order, "second") })

	b.Publish(models.Event{Kind: models.EventStepStarted, StepStarted: &models.StepStartedPayload{Step: 1}})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("dispatch order = %v, want [first second]", order)
	}
}

func TestBus_UnrelatedKindNotDelivered(t *testing.T) {
	b := New()
	called := false
	b.Subscribe(models.EventRunFinished, func(models.Event) { called = true })

	b.Publish(models.Event{Kind: models.EventStepStarted})

	if called {
		t.Fatal("handler for a different kind should not be invoked")
	}
}

func TestBus_PanicIsolatedFromOtherHandlers(t *testing.T) {
	b := New()
	secondCalled := false

	b.Subscribe(models.EventRunFinished, func(models.Event) { panic("boom") })
	b.Subscribe(models.EventRunFinished, func(models.Event) { secondCalled = true })

	b.Publish(models.Event{Kind: models.EventRunFinished})

	if !secondCalled {
		t.Fatal("a panicking handler must not prevent delivery to the next one")
	}
}

func TestBus_UnsubscribeDetaches(t *testing.T) {
	b := New()
	called := 0
	unsub := b.Subscribe(models.EventStepStarted, func(models.Event) { called++ })

	b.Publish(models.Event{Kind: models.EventStepStarted})
	unsub()
	b.Publish(models.Event{Kind: models.EventStepStarted})

	if called != 1 {
		t.Fatalf("called = %d, want 1", called)
	}
	// calling unsubscribe twice must not panic
	unsub()
}

func TestBus_NoBufferingBeforeSubscription(t *testing.T) {
	b := New()
	b.Publish(models.Event{Kind: models.EventStepStarted})

	called := false
	b.Subscribe(models.EventStepStarted, func(models.Event) { called = true })

	if called {
		t.Fatal("late subscriber must not see events published before it subscribed")
	}
}

func TestBus_SubscribeAllSeesEveryKind(t *testing.T) {
	b := New()
	var kinds []models.EventKind
	b.SubscribeAll(func(e models.Event) { kinds = append(kinds, e.Kind) })

	b.Publish(models.Event{Kind: models.EventStepStarted})
	b.Publish(models.Event{Kind: models.EventRunFinished})

	if len(kinds) != 2 || kinds[0] != models.EventStepStarted || kinds[1] != models.EventRunFinished {
		t.Fatalf("kinds = %v", kinds)
	}
}
