// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides key generation, voter identity, and hashing utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same poll ID and salt always produce the same key. This allows validation
without storing the key in the database.

# Moderator Keys

Moderators authenticate with an ID and a key derived the same way from
MODERATOR_KEY_SALT:

	key := auth.GenerateModeratorKey(moderatorID, salt)
	err := auth.ValidateModeratorKey(moderatorID, key, salt)

The HMAC message is prefixed, so a moderator key never equals an admin key.

# Voter Keys

Each rating is stored under a voter key:

	key := auth.VoterKey(userID, clientIP, salt)

Signed-in voters get "user:<id>"; anonymous voters get "ip:<hash>".
A user ID only counts when it arrives with a key from USER_KEY_SALT:

	key := auth.GenerateUserKey(userID, salt)
	err := auth.ValidateUserKey(userID, key, salt)

# Share Slugs

Share slugs create URL-friendly identifiers for published polls:

	slug := auth.GenerateShareSlug(pollID, salt)

Slugs are base62 encoded (alphanumeric only) for easy sharing.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
