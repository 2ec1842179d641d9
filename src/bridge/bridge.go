package bridge

import "github.com/campus-connect/relay/src/types"

// Bridge copies stored chat messages to an external channel for consumers
// outside the relay. It never feeds messages back into the relay.
type Bridge interface {
	// Mirror queues a message for publication without blocking.
	Mirror(msg types.ChatMessage)

	// Start connects and begins publishing queued messages.
	Start() error

	// Stop flushes what it can and shuts down the connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// DropCounter is notified when a message could not be queued.
type DropCounter interface {
	MirrorDropped()
}
