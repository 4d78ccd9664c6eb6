package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// solve
	"solve.requested": {},
	"solve.completed": {},
	"solve.aborted":   {},
	"solve.rejected":  {},

	// mqtt bridge
	"bridge.connected":    {},
	"bridge.disconnected": {},
	"bridge.request":      {},
	"bridge.error":        {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
