package eventbus

import "testing"

func TestPublishSubscribeOrdering(t *testing.T) {
	b := New(8)
	go func() {
		b.Publish(Event{Kind: ExplorationStart, Operation: "a"})
		b.Publish(Event{Kind: SequenceStart, Operation: "b"})
		b.Publish(Event{Kind: ExplorationEnd, Operation: "c"})
		b.Close()
	}()

	var got []Kind
	for e := range b.Subscribe() {
		got = append(got, e.Kind)
	}
	want := []Kind{ExplorationStart, SequenceStart, ExplorationEnd}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("at %d expected %s got %s", i, k, got[i])
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New(1)
	b.Close()
	b.Close()
}

func TestKindStringCoversAllVariants(t *testing.T) {
	for k := ExplorationStart; k <= Log; k++ {
		if k.String() == "Unknown" {
			t.Fatalf("kind %d missing a String case", k)
		}
	}
}
