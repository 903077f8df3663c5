package chat

import "errors"

var (
	// ErrNotFound covers both truly absent chats and chats owned by a
	// different user, so existence is never leaked.
	ErrNotFound = errors.New("chat: not found")

	// ErrNoUserMessage rejects transcripts that are empty or do not end
	// with a user-authored message, before any provider or persistence call.
	ErrNoUserMessage = errors.New("chat: no user message found")
)
