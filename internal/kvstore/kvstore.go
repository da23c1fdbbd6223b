// Package kvstore is the per-user key-value persistence port behind the
// reconciliation state: overrides, toggles, the classification cache and the
// user profile.
package kvstore

import (
	"context"
	"fmt"
	"regexp"
)

// Store keeps opaque values per user and key. Implementations are safe for
// concurrent use; concurrent writers to the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, userID, key string) ([]byte, bool, error)
	Set(ctx context.Context, userID, key string, value []byte) error
	Remove(ctx context.Context, userID, key string) error
}

var (
	userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_@-][A-Za-z0-9_.@-]{0,127}$`)
	keyPattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)
)

// ValidateUserID rejects identifiers that are empty, too long or unsafe to
// use as a file or document name.
func ValidateUserID(userID string) error {
	if !userIDPattern.MatchString(userID) {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return nil
}

func validate(userID, key string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
