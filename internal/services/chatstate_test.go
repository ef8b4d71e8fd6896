package services

import (
	"testing"

	"qrmaster/internal/models"
)

func TestChatStateLifecycle(t *testing.T) {
	svc := NewChatStateService(newTestLogger())

	state, err := svc.GetState(7)
	if err != nil {
		t.Fatal(err)
	}
	if state.State != models.Default || state.LastImage != nil || state.LastDecoded != nil {
		t.Fatalf("unexpected default state %+v", state)
	}

	if err := svc.WithConversationState(7, models.AwaitingText); err != nil {
		t.Fatal(err)
	}
	encoded := &models.EncodedImage{Text: "hi"}
	if err := svc.WithPreview(7, encoded); err != nil {
		t.Fatal(err)
	}
	if err := svc.WithDecoded(7, "decoded"); err != nil {
		t.Fatal(err)
	}

	state, _ = svc.GetState(7)
	if state.State != models.AwaitingText {
		t.Errorf("State = %d", state.State)
	}
	if state.LastImage != encoded {
		t.Errorf("LastImage not stored")
	}
	if state.LastDecoded == nil || *state.LastDecoded != "decoded" {
		t.Errorf("LastDecoded = %v", state.LastDecoded)
	}

	// Other chats are unaffected
	other, _ := svc.GetState(8)
	if other.LastImage != nil {
		t.Errorf("chat 8 sees chat 7's preview")
	}

	if err := svc.ClearState(7); err != nil {
		t.Fatal(err)
	}
	state, _ = svc.GetState(7)
	if state.LastImage != nil || state.State != models.Default {
		t.Errorf("state not cleared: %+v", state)
	}
}
