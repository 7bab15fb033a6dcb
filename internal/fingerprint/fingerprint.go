// Package fingerprint canonicalizes structured values into stable,
// fixed-length content hashes.
//
// Fingerprints serve two purposes in the registry: deduplicating test
// inputs (two runs with logically equal inputs count as one unit of
// coverage) and deriving entity identity from (type, path) so the same
// logical entity always resolves to the same record across process
// restarts.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/trustgate/trustgate/internal/types"
)

// PrefixLen is the number of hex characters kept from the SHA-256 digest.
const PrefixLen = 16

// Fingerprint canonicalizes a structured value and returns the first 16 hex
// characters of its SHA-256 digest. Logically equal values (same keys and
// values, any original ordering) always produce the same fingerprint.
// Arrays and scalars are accepted as-is. A non-serializable value is a
// caller contract violation and returns an error.
func Fingerprint(value any) (string, error) {
	canonical, err := canonicalize(value)
	if err != nil {
		return "", fmt.Errorf("fingerprinting value: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:PrefixLen], nil
}

// EntityKey derives the stable identity of an entity from its type and
// path, using the same canonicalize-then-hash scheme as Fingerprint.
func EntityKey(entityType types.EntityType, path string) (string, error) {
	key, err := Fingerprint(fmt.Sprintf("%s:%s", entityType, path))
	if err != nil {
		return "", fmt.Errorf("deriving entity key for %s:%s: %w", entityType, path, err)
	}
	return key, nil
}

// canonicalize produces deterministic JSON for a value. Marshaling once
// normalizes struct field order into JSON text; decoding that text into
// untyped maps and re-encoding sorts object keys at every nesting level,
// since encoding/json emits map keys in sorted order.
func canonicalize(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not serializable: %w", err)
	}

	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("normalizing value: %w", err)
	}

	canonical, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("re-encoding normalized value: %w", err)
	}

	return canonical, nil
}
