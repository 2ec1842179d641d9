package providers

import (
	"github.com/campus-connect/relay/src/bridge"
	"github.com/campus-connect/relay/src/hub"
	"github.com/campus-connect/relay/src/metrics"
	"github.com/campus-connect/relay/src/registry"
	"github.com/campus-connect/relay/src/relay"
	"github.com/campus-connect/relay/src/types"
)

// Compile-time interface assertions.
var (
	_ types.Conn         = (*fasthttpConn)(nil)
	_ types.Pinger       = (*fasthttpConn)(nil)
	_ relay.Membership   = (*registry.Registry)(nil)
	_ relay.Deliverer    = (*hub.Hub)(nil)
	_ relay.Mirror       = (bridge.Bridge)(nil)
	_ bridge.Bridge      = (*bridge.RedisBridge)(nil)
	_ bridge.DropCounter = (*metrics.Metrics)(nil)
)
