package registry

import (
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewChatID returns a ULID for now. Ids minted in the same millisecond still
// sort in creation order and never collide.
func NewChatID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// CreatedAt decodes the creation time carried by a chat id. Both ULIDs and
// the legacy decimal millisecond ids are understood.
func CreatedAt(chatID string) (time.Time, bool) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return time.Time{}, false
	}
	if id, err := ulid.ParseStrict(chatID); err == nil {
		return ulid.Time(id.Time()), true
	}
	ms, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
