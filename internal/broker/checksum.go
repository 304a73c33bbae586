package broker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Checksum computes the broker's request signature:
// SHA256(timestamp + body + secret), hex encoded. The timestamp must be the
// same ISO-8601 string sent in the X-Timestamp header.
func Checksum(timestamp string, payload interface{}, secret string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(timestamp + string(body) + secret))
	return hex.EncodeToString(sum[:]), nil
}
