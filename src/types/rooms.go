package types

import "strings"

// DirectRoomID returns the room id for a direct conversation between two
// users. The result does not depend on argument order.
func DirectRoomID(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

// ProjectRoomID returns the group room id for a project.
func ProjectRoomID(projectID string) string {
	return "project:" + strings.TrimSpace(projectID)
}
