package kvstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UserStateCollection holds one document per user with one field per key.
const UserStateCollection = "user_state"

// FirestoreStore implements Store on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(UserStateCollection).Doc(userID)
}

func (s *FirestoreStore) Get(ctx context.Context, userID, key string) ([]byte, bool, error) {
	if err := validate(userID, key); err != nil {
		return nil, false, err
	}
	snap, err := s.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read user state: %w", err)
	}
	v, err := snap.DataAt(key)
	if err != nil {
		// DataAt fails when the field is absent.
		return nil, false, nil
	}
	str, ok := v.(string)
	if !ok {
		return nil, false, fmt.Errorf("user state %s has unexpected type %T", key, v)
	}
	return []byte(str), true, nil
}

func (s *FirestoreStore) Set(ctx context.Context, userID, key string, value []byte) error {
	if err := validate(userID, key); err != nil {
		return err
	}
	_, err := s.doc(userID).Set(ctx, map[string]interface{}{key: string(value)}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to write user state: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Remove(ctx context.Context, userID, key string) error {
	if err := validate(userID, key); err != nil {
		return err
	}
	_, err := s.doc(userID).Update(ctx, []firestore.Update{{Path: key, Value: firestore.Delete}})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete user state: %w", err)
	}
	return nil
}
