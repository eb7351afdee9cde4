package studio

import (
	"context"
	"strings"

	"github.com/clipforge/clipforge/internal/provider"
)

// ChatStore is the slice of the persisted store the turn handler needs.
type ChatStore interface {
	// PriorTurns returns the conversation's turns in order, excluding
	// synthetic info entries.
	PriorTurns(ctx context.Context, conversationID string) ([]provider.Turn, error)
	AppendUserMessage(ctx context.Context, conversationID, content, imageURL string) error
	AppendAssistantMessage(ctx context.Context, conversationID, content string) error
}

// TurnHandler exchanges one user utterance for one assistant reply and
// detects the embedded ready sentinel.
type TurnHandler struct {
	gateway provider.Gateway
	store   ChatStore
}

func NewTurnHandler(gateway provider.Gateway, store ChatStore) *TurnHandler {
	return &TurnHandler{gateway: gateway, store: store}
}

// SendMessage persists the user turn, asks the model for a reply and
// persists the visible text. When the reply is the ready sentinel the
// returned flag is set and the visible text is the sentinel's companion
// message.
func (h *TurnHandler) SendMessage(ctx context.Context, cred, conversationID, content, imageURL string, remix *provider.RemixContext) (reply string, ready bool, err error) {
	if strings.TrimSpace(cred) == "" {
		return "", false, ErrMissingCredential
	}

	prior, err := h.store.PriorTurns(ctx, conversationID)
	if err != nil {
		return "", false, err
	}

	if err := h.store.AppendUserMessage(ctx, conversationID, content, imageURL); err != nil {
		return "", false, err
	}

	turns := append(prior, provider.Turn{Role: "user", Content: content, ImageURL: imageURL})

	raw, err := h.gateway.CreateTextReply(ctx, cred, turns, SystemGuidance, remix)
	if err != nil {
		return "", false, err
	}

	visible := raw
	if sig, ok := DetectReadySignal(raw); ok {
		visible = sig.Message
		ready = true
	}

	if err := h.store.AppendAssistantMessage(ctx, conversationID, visible); err != nil {
		return "", false, err
	}
	return visible, ready, nil
}
