package verifier

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/OneOfOne/xxhash"
)

const maxKeyedRunes = 500

// Key derives the cache key for a claim: xxhash64 over the trimmed,
// truncated text. Stable across processes so the fast and durable
// layers agree.
func Key(claim string) string {
	text := strings.TrimSpace(claim)
	if runes := []rune(text); len(runes) > maxKeyedRunes {
		text = string(runes[:maxKeyedRunes])
	}
	h := xxhash.NewS64(0)
	h.Write([]byte(text))
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, h.Sum64())
	return hex.EncodeToString(out)
}
