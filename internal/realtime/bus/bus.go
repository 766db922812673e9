package bus

import (
	"context"

	"github.com/kon-rad/juego-sub000/internal/realtime"
)

// Bus carries realtime messages between server instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
