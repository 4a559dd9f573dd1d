package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveMessage_ShouldRoundTripBySortID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	msg := Message{ChatID: "C1", Role: "user", SortID: 1700000001, Content: "hello"}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}

	got, err := s.MessageBySortID(ctx, "user", "C1", 1700000001)
	if err != nil {
		t.Fatalf("MessageBySortID: %v", err)
	}
	if got != msg {
		t.Errorf("Expected %+v, got %+v", msg, got)
	}
}

func TestStore_SaveMessage_ShouldUpsertOnSameKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveMessage(ctx, Message{ChatID: "C1", Role: "user", SortID: 7, Content: "first"}); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if err := s.SaveMessage(ctx, Message{ChatID: "C1", Role: "user", SortID: 7, Content: "second"}); err != nil {
		t.Fatalf("SaveMessage upsert: %v", err)
	}

	got, err := s.MessageBySortID(ctx, "user", "C1", 7)
	if err != nil {
		t.Fatalf("MessageBySortID: %v", err)
	}
	if got.Content != "second" {
		t.Errorf("Expected upserted content, got %q", got.Content)
	}
}

func TestStore_MessageBySortID_WhenAbsent_ShouldReturnErrNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.MessageBySortID(context.Background(), "user", "C1", 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestStore_MessagesInRange_ShouldReturnOrderedInclusiveWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, sortID := range []int64{30, 10, 20, 40} {
		msg := Message{ChatID: "C1", Role: "assistant", SortID: sortID, Content: "m"}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}
	if err := s.SaveMessage(ctx, Message{ChatID: "other", Role: "user", SortID: 20, Content: "x"}); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}

	got, err := s.MessagesInRange(ctx, "C1", 10, 30)
	if err != nil {
		t.Fatalf("MessagesInRange: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected inclusive window of 3, got %d", len(got))
	}
	for i, want := range []int64{10, 20, 30} {
		if got[i].SortID != want {
			t.Errorf("Position %d: expected sort id %d, got %d", i, want, got[i].SortID)
		}
	}
}

func TestStore_MuteStatus_ShouldDefaultFalseAndPersistUpdates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	muted, err := s.MuteStatus(ctx, "C9")
	if err != nil {
		t.Fatalf("MuteStatus: %v", err)
	}
	if muted {
		t.Error("Unknown chats must default to unmuted")
	}

	if err := s.SetMuteStatus(ctx, "C9", true); err != nil {
		t.Fatalf("SetMuteStatus: %v", err)
	}
	muted, err = s.MuteStatus(ctx, "C9")
	if err != nil || !muted {
		t.Errorf("Expected muted after set, got %v (err %v)", muted, err)
	}

	if err := s.SetMuteStatus(ctx, "C9", false); err != nil {
		t.Fatalf("SetMuteStatus upsert: %v", err)
	}
	muted, _ = s.MuteStatus(ctx, "C9")
	if muted {
		t.Error("Expected unmuted after second set")
	}
}
