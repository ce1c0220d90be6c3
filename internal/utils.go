package internal

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Version is the application version written into exports
const Version = "1.0.0"

// HashKey returns the md5 hex digest of parts joined with NUL separators
func HashKey(parts ...string) string {
	hash := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}
