package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// BuildArticleID hashes the most stable article fields to form a deterministic
// document id. Link wins over guid; title is only used when both are missing.
// It returns "" when every input is blank.
func BuildArticleID(sourceID, link, guid, title string) string {
	key := strings.TrimSpace(link)
	if key == "" {
		key = strings.TrimSpace(guid)
	}
	if key == "" {
		key = strings.TrimSpace(title)
	}
	if key == "" {
		return ""
	}
	s := sha1.Sum([]byte(sourceID + "|" + key))
	return hex.EncodeToString(s[:])
}
