// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAdminKey     = errors.New("invalid admin key")
	ErrInvalidModeratorKey = errors.New("invalid moderator key")
	ErrInvalidUserKey      = errors.New("invalid user key")
)

// Voter key prefixes; the two namespaces never collide
const (
	userVoterPrefix = "user:"
	ipVoterPrefix   = "ip:"
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func sign(salt, msg string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	return h.Sum(nil)
}

func encodeKey(sum []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// GenerateAdminKey creates an HMAC-based admin key for a poll
// This is deterministic and verifiable
func GenerateAdminKey(pollID, salt string) string {
	return encodeKey(sign(salt, pollID))
}

// ValidateAdminKey checks if the provided admin key is valid for the poll
func ValidateAdminKey(pollID, adminKey, salt string) error {
	expected := GenerateAdminKey(pollID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateModeratorKey creates the key a moderator presents with X-Moderator-Key.
// The message is namespaced so it can never equal an admin key.
func GenerateModeratorKey(moderatorID, salt string) string {
	return encodeKey(sign(salt, "moderator:"+moderatorID))
}

// ValidateModeratorKey checks a moderator's key in constant time
func ValidateModeratorKey(moderatorID, key, salt string) error {
	if moderatorID == "" {
		return ErrInvalidModeratorKey
	}
	expected := GenerateModeratorKey(moderatorID, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidModeratorKey
	}
	return nil
}

// GenerateUserKey creates the key a signed-in user presents with X-User-Key.
// It is issued by whatever system vouches for the user ID.
func GenerateUserKey(userID, salt string) string {
	return encodeKey(sign(salt, "user:"+userID))
}

// ValidateUserKey checks a user's key in constant time
func ValidateUserKey(userID, key, salt string) error {
	if userID == "" || salt == "" {
		return ErrInvalidUserKey
	}
	expected := GenerateUserKey(userID, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidUserKey
	}
	return nil
}

// GenerateShareSlug creates a short, deterministic URL slug for a poll
// Uses HMAC for determinism and base62 encoding for URL-friendliness
func GenerateShareSlug(pollID, salt string) string {
	sum := sign(salt, pollID)
	return base62Encode(sum[:8])
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	sum := sign(salt, ip)
	// First 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}

// VoterKey identifies who cast a rating. Verified users are keyed by
// user ID; everyone else by their hashed IP. Callers pass an empty
// userID unless ValidateUserKey has accepted it.
func VoterKey(userID, ip, salt string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return userVoterPrefix + userID
	}
	return ipVoterPrefix + HashIP(ip, salt)
}
