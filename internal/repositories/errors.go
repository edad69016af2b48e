package repositories

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMediaNotFound   = errors.New("media not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrSessionNotFound = errors.New("upload session not found")
	ErrUnknownKind     = errors.New("unknown media kind")
)
