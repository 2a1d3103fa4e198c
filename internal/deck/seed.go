// internal/deck/seed.go
package deck

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateSeed produces a fresh unpredictable seed for one play's shuffle.
// The seed is recorded on the room and revealed after the play resolves so
// clients can verify the shuffle against the committed hash.
func GenerateSeed() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// a timestamp seed keeps the game running.
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// HashSeed returns the SHA-256 hex digest of a seed. The hash is broadcast
// while the play is live; the seed itself stays concealed until settlement.
func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
