package derror

import "errors"

var (
	ErrTaskNotRunning     = errors.New("task is not running")
	ErrNoPendingAction    = errors.New("no pending deferred action")
	ErrConversationClosed = errors.New("conversation no longer exists")
)
