package rag

import (
	"fmt"
	"testing"

	"github.com/aoleynikov/bobchat/store"
)

func makeHistory(n int) []store.Message {
	history := make([]store.Message, n)
	for i := range history {
		participant := "user"
		if i%2 == 1 {
			participant = "assistant"
		}
		history[i] = store.Message{
			ID:          int64(i + 1),
			Content:     fmt.Sprintf("turn %d", i+1),
			Participant: participant,
		}
	}
	return history
}

func TestWindowTrailingMessages(t *testing.T) {
	history := makeHistory(8)

	window := Window(history, 3)
	if len(window) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(window))
	}
	if window[0].ID != 6 || window[2].ID != 8 {
		t.Fatalf("expected trailing ids 6..8, got %d..%d", window[0].ID, window[2].ID)
	}
}

func TestWindowShorterHistoryReturnedWhole(t *testing.T) {
	history := makeHistory(2)
	window := Window(history, 5)
	if len(window) != 2 {
		t.Fatalf("expected full history, got %d messages", len(window))
	}
}

func TestWindowDefaultSize(t *testing.T) {
	history := makeHistory(9)
	window := Window(history, 0)
	if len(window) != defaultWindowSize {
		t.Fatalf("expected %d messages for size 0, got %d", defaultWindowSize, len(window))
	}
	if window[len(window)-1].ID != 9 {
		t.Fatalf("window must end at latest message, got id %d", window[len(window)-1].ID)
	}
}

func TestLatestUser(t *testing.T) {
	userLast := []store.Message{
		{Content: "answer", Participant: "assistant"},
		{Content: "question", Participant: "user"},
	}
	latest, ok := LatestUser(userLast)
	if !ok || latest.Content != "question" {
		t.Fatalf("expected latest user message, got ok=%v content=%q", ok, latest.Content)
	}

	assistantLast := []store.Message{
		{Content: "question", Participant: "user"},
		{Content: "answer", Participant: "assistant"},
	}
	if _, ok := LatestUser(assistantLast); ok {
		t.Fatal("assistant-authored tail must not report ok")
	}

	if _, ok := LatestUser(nil); ok {
		t.Fatal("empty window must not report ok")
	}
}
