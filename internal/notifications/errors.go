package notifications

import "errors"

var (
	ErrUnknownChannel      = errors.New("unknown channel")
	ErrNotDirect           = errors.New("channel is not a direct conversation")
	ErrNoPendingInvitation = errors.New("no pending invitation for channel")
	ErrInvalidArgument     = errors.New("invalid argument")
)
