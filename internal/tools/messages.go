package tools

import (
	"context"
	"errors"
	"fmt"

	"toolgate/internal/archive"
	"toolgate/internal/domain"
)

// MessageService exposes the archived conversation store.
type MessageService struct {
	store *archive.Store
}

// NewMessageService builds the adapter over store.
func NewMessageService(store *archive.Store) *MessageService {
	return &MessageService{store: store}
}

// Tools returns the message tool pairs.
func (s *MessageService) Tools() []Tool {
	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "get_message_by_sort_id",
				Description: "Retrieve a specific message by its sort ID and role",
				Params: []domain.ParameterSpec{
					{Name: "role", Kind: domain.KindString, Description: "The role of the message sender", Required: true, Enum: []any{"user", "assistant"}},
					{Name: "chat_id", Kind: domain.KindString, Description: "The chat/channel ID", Required: true},
					{Name: "sort_id", Kind: domain.KindInteger, Description: "The sort ID (timestamp) of the message", Required: true},
				},
			},
			Handler: domain.HandlerFunc(s.messageBySortID),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "get_messages_in_range",
				Description: "Retrieve messages within a specific time range",
				Params: []domain.ParameterSpec{
					{Name: "chat_id", Kind: domain.KindString, Description: "The chat/channel ID", Required: true},
					{Name: "start_sort_id", Kind: domain.KindInteger, Description: "Start timestamp for the range", Required: true},
					{Name: "end_sort_id", Kind: domain.KindInteger, Description: "End timestamp for the range", Required: true},
				},
			},
			Handler: domain.HandlerFunc(s.messagesInRange),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "manage_mute_status",
				Description: "Get or set the mute status for a chat/channel",
				Params: []domain.ParameterSpec{
					{Name: "chat_id", Kind: domain.KindString, Description: "The chat/channel ID", Required: true},
					{Name: "status", Kind: domain.KindBoolean, Description: "New mute status; omit to just retrieve the current status"},
				},
			},
			Handler: domain.HandlerFunc(s.manageMuteStatus),
		},
	}
}

func (s *MessageService) messageBySortID(ctx context.Context, args domain.Args) (any, error) {
	msg, err := s.store.MessageBySortID(ctx, argString(args, "role"), argString(args, "chat_id"), argInt(args, "sort_id"))
	if errors.Is(err, archive.ErrNotFound) {
		return nil, fmt.Errorf("no message found for sort ID %d", argInt(args, "sort_id"))
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) messagesInRange(ctx context.Context, args domain.Args) (any, error) {
	msgs, err := s.store.MessagesInRange(ctx, argString(args, "chat_id"), argInt(args, "start_sort_id"), argInt(args, "end_sort_id"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"messages": msgs, "count": len(msgs)}, nil
}

func (s *MessageService) manageMuteStatus(ctx context.Context, args domain.Args) (any, error) {
	chatID := argString(args, "chat_id")
	if argPresent(args, "status") {
		if err := s.store.SetMuteStatus(ctx, chatID, argBool(args, "status")); err != nil {
			return nil, err
		}
	}
	muted, err := s.store.MuteStatus(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"chat_id": chatID, "muted": muted}, nil
}
