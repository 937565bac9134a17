package redis

import (
	"fmt"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// Key prefix for all server data
const keyPrefix = "sudam"

// sessionKey returns the HASH holding a session's version and JSON body
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// clockKey returns the HASH holding a clock's version and JSON body
func clockKey(id model.SessionID) string {
	return fmt.Sprintf("%s:clock:%s", keyPrefix, id)
}

// deadlinesKey returns the ZSET of phase deadlines scored by unix millis
func deadlinesKey() string {
	return fmt.Sprintf("%s:idx:deadlines", keyPrefix)
}

// runningClocksKey returns the SET of sessions whose clock is running
func runningClocksKey() string {
	return fmt.Sprintf("%s:idx:running_clocks", keyPrefix)
}

// queueKey returns the ZSET of queued player ids scored by rating
func queueKey(mode model.Mode) string {
	return fmt.Sprintf("%s:queue:%s", keyPrefix, mode)
}

// queueEntriesKey returns the HASH of player id -> candidate JSON for a mode
func queueEntriesKey(mode model.Mode) string {
	return fmt.Sprintf("%s:queue:%s:entries", keyPrefix, mode)
}

// presenceKey returns the key of a player's presence status
func presenceKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:presence:%s", keyPrefix, id)
}
