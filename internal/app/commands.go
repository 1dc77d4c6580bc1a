package app

import (
	"context"
	"errors"
)

var ErrNoStay = errors.New("no stay request in message")

// AvailabilityService answers availability for a guest message without
// drafting a reply. It shares the chat flow's lookup, cache and links.
type AvailabilityService struct {
	chat *ChatService
}

func NewAvailabilityService(chat *ChatService) *AvailabilityService {
	return &AvailabilityService{chat: chat}
}

func (s *AvailabilityService) Check(ctx context.Context, message string) (*StayQuote, error) {
	r, ok := s.chat.ex.Extract(message)
	if !ok {
		return nil, ErrNoStay
	}
	return s.chat.quote(ctx, r, message, []string{message}), nil
}
