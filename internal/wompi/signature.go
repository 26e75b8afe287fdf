package wompi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureHeaders are checked in order for the event signature.
var SignatureHeaders = []string{"X-Signature", "Signature"}

// ComputeSignature returns hex(SHA256(eventID + createdAt + secret)).
func ComputeSignature(eventID, createdAt, secret string) string {
	sum := sha256.Sum256([]byte(eventID + createdAt + strings.TrimSpace(secret)))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks header against the notification. The header may
// carry the bare digest or a "sha256=" prefix. An empty secret disables
// verification.
func VerifySignature(n *Notification, header, secret string) bool {
	if strings.TrimSpace(secret) == "" {
		return true
	}
	expected := ComputeSignature(n.EventID, n.EventCreatedAt, secret)
	got := strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
