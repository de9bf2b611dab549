package domain

import "errors"

var (
	// not found
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")

	// authorization
	ErrNotParticipant   = errors.New("user is not a participant of the conversation")
	ErrNotMessageAuthor = errors.New("only the original sender can edit a message")
	ErrSystemMessage    = errors.New("system messages cannot be edited")

	// validation
	ErrEmptyMessage     = errors.New("empty message")
	ErrMessageTooLong   = errors.New("message too long")
	ErrSelfConversation = errors.New("cannot open a conversation with yourself")
	ErrPropertyInactive = errors.New("property does not exist or is not active")
	ErrInvalidCursor    = errors.New("invalid cursor")
)
