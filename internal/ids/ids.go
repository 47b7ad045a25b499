package ids

import (
	"crypto/rand"
	"encoding/hex"
)

func New() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// Short returns an 8-character id for human-facing identifiers
// (action items, insights).
func Short() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
