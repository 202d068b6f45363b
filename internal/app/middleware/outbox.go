package middleware

import (
	"stayhub/internal/app/outbox"
)

// OutboxFlush flushes the outbox after a successful command. Place it
// outside Transaction so the flush sees committed records.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return afterSuccess(box.Flush)
}
