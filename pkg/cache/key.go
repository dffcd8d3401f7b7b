package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// MaxKeyLength is the longest key stored as is; longer keys are hashed.
	MaxKeyLength = 250
	// hashLength is the width of ContentHash and StyleHash digests.
	hashLength = 16
)

// NormalizeKey maps a logical key to the physical key used by every tier:
// trimmed, lower-cased, spaces replaced with underscores. Normalized keys
// longer than MaxKeyLength become their hex SHA-256.
func NormalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, " ", "_")
	if len(k) > MaxKeyLength {
		sum := sha256.Sum256([]byte(k))
		return hex.EncodeToString(sum[:])
	}
	return k
}

// ContentHash returns a short hex digest of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:hashLength]
}

// StyleHash returns a short hex digest of style encoded as canonical JSON.
// encoding/json sorts map keys and keeps struct field order, so equal
// values always hash the same.
func StyleHash(style any) (string, error) {
	data, err := json.Marshal(style)
	if err != nil {
		return "", fmt.Errorf("encode style: %w", err)
	}
	return ContentHash(data), nil
}

// ContentKey builds the cache key for content rendered with style:
// prefix + ContentHash(content) + "_" + StyleHash(style).
func ContentKey(prefix string, content []byte, style any) (string, error) {
	styleHash, err := StyleHash(style)
	if err != nil {
		return "", err
	}
	return prefix + ContentHash(content) + "_" + styleHash, nil
}
