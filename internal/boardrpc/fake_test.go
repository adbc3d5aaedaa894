package boardrpc

import (
	"context"
	"testing"

	"github.com/go5chan/boardkeeper/internal/model"
)

func TestFakeTransportPublishRecordsModeration(t *testing.T) {
	ft := NewFakeTransport()
	ft.SetHosted("board.eth")
	signer, err := ft.CreateSigner(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSigner: %v", err)
	}

	m := model.Moderation{CommentID: "cid1", Kind: model.ModerationArchive, SubplebbitAddress: "board.eth"}
	if err := ft.PublishModeration(context.Background(), m, signer); err != nil {
		t.Fatalf("PublishModeration: %v", err)
	}
	if len(ft.Published) != 1 || ft.Published[0].CommentID != "cid1" {
		t.Errorf("Published = %+v", ft.Published)
	}
}

func TestFakeTransportSubscribeAndUnsubscribe(t *testing.T) {
	ft := NewFakeTransport()
	var received *model.Board
	unsubscribe, err := ft.Subscribe(context.Background(), "board.eth", func(b *model.Board) { received = b })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	ft.PushUpdate("board.eth", &model.Board{Address: "board.eth"})
	if received == nil || received.Address != "board.eth" {
		t.Fatalf("expected update to be delivered, got %+v", received)
	}

	unsubscribe()
	received = nil
	ft.PushUpdate("board.eth", &model.Board{Address: "board.eth"})
	if received != nil {
		t.Error("expected no update after unsubscribe")
	}
}

func TestFakeTransportHostsLocally(t *testing.T) {
	ft := NewFakeTransport()
	if ft.HostsLocally("board.eth") {
		t.Fatal("expected board not yet hosted")
	}
	ft.SetHosted("board.eth")
	if !ft.HostsLocally("board.eth") {
		t.Fatal("expected board to be hosted after SetHosted")
	}
}

func TestFakeTransportEditBoardMergesRoles(t *testing.T) {
	ft := NewFakeTransport()
	ft.SetBoard("board.eth", &model.Board{Address: "board.eth"})
	err := ft.EditBoard(context.Background(), "board.eth", map[string]model.Role{"signer-1.eth": {Role: "moderator"}})
	if err != nil {
		t.Fatalf("EditBoard: %v", err)
	}
	b, _ := ft.GetBoard(context.Background(), "board.eth")
	if !b.Roles["signer-1.eth"].IsModerator() {
		t.Error("expected signer-1.eth to be granted moderator role")
	}
}

func TestFakeTransportGetPageMissing(t *testing.T) {
	ft := NewFakeTransport()
	if _, err := ft.GetPage(context.Background(), "board.eth", "nope"); err == nil {
		t.Fatal("expected error for missing page")
	}
}
