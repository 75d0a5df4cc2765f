package services

import (
	"strings"
	"testing"
)

func TestRoomCacheKeys(t *testing.T) {
	const roomID = "11111111-2222-3333-4444-555555555555"
	const userID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"

	// The "cache:" namespace is added by CacheService itself; key builders
	// produce the room-scoped part only.
	prefix := RoomCachePrefix(roomID)
	if prefix != "chat_room:"+roomID+":" {
		t.Fatalf("unexpected room prefix %q", prefix)
	}

	keys := []string{
		RoomAccessKey(roomID, userID),
		RoomUnreadKey(roomID, userID),
		RoomMembersKey(roomID),
		RoomLastMessageKey(roomID),
		RoomStatsKey(roomID),
		RoomOnlineKey(roomID),
	}
	seen := make(map[string]bool)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			t.Errorf("key %q does not share the room prefix %q", key, prefix)
		}
		if seen[key] {
			t.Errorf("duplicate cache key %q", key)
		}
		seen[key] = true
	}
}

func TestRoomKeysScopedPerUser(t *testing.T) {
	const roomID = "11111111-2222-3333-4444-555555555555"
	if RoomUnreadKey(roomID, "user-a") == RoomUnreadKey(roomID, "user-b") {
		t.Error("unread keys must differ per user")
	}
	if RoomAccessKey(roomID, "user-a") == RoomAccessKey(roomID, "user-b") {
		t.Error("access keys must differ per user")
	}
}

func TestRoomPrefixIsolatesRooms(t *testing.T) {
	a := RoomCachePrefix("room-a")
	b := RoomCachePrefix("room-b")
	if strings.HasPrefix(RoomMembersKey("room-b"), a) {
		t.Errorf("room-b keys must not match room-a's prefix %q", a)
	}
	if a == b {
		t.Error("distinct rooms must have distinct prefixes")
	}
}
