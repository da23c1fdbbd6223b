package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taxtally/deductions/internal/logging"
	"taxtally/deductions/internal/models"
)

const (
	merchantsCollection = "merchants"
	anzsicCollection    = "anzsic_mappings"
)

// FirestoreStore implements ReferenceStore on Cloud Firestore. Merchant
// documents are keyed by the merchant key, mappings by the ANZSIC code.
type FirestoreStore struct {
	client *firestore.Client
	logger logging.Logger
}

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client, logger logging.Logger) *FirestoreStore {
	return &FirestoreStore{client: client, logger: logger}
}

// OpenFirestoreStore dials Firestore for projectID.
func OpenFirestoreStore(ctx context.Context, projectID string, logger logging.Logger) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewFirestoreStore(client, logger), nil
}

// docID makes a key safe to use as a document ID.
func docID(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

func (s *FirestoreStore) FindMerchant(ctx context.Context, key string) (models.Merchant, bool, error) {
	doc, err := s.client.Collection(merchantsCollection).Doc(docID(models.MerchantKey(key))).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.Merchant{}, false, nil
	}
	if err != nil {
		return models.Merchant{}, false, fmt.Errorf("failed to get merchant: %w", err)
	}
	var m models.Merchant
	if err := doc.DataTo(&m); err != nil {
		return models.Merchant{}, false, fmt.Errorf("failed to parse merchant: %w", err)
	}
	return m, true, nil
}

func (s *FirestoreStore) ListActiveMerchants(ctx context.Context) ([]models.Merchant, error) {
	docs, err := s.client.Collection(merchantsCollection).Where("isActive", "==", true).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	out := make([]models.Merchant, 0, len(docs))
	for _, doc := range docs {
		var m models.Merchant
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("failed to parse merchant %s: %w", doc.Ref.ID, err)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MerchantName < out[j].MerchantName })
	return out, nil
}

func (s *FirestoreStore) BulkInsertMerchants(ctx context.Context, merchants []models.Merchant) (BulkResult, error) {
	var result BulkResult
	now := time.Now()
	for _, m := range merchants {
		key := models.MerchantKey(m.MerchantName)
		if key == "" {
			result.Skipped++
			continue
		}
		m.MerchantName = key
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now

		_, err := s.client.Collection(merchantsCollection).Doc(docID(key)).Create(ctx, m)
		if status.Code(err) == codes.AlreadyExists {
			s.logger.Debug("Skipping duplicate merchant", logging.F(logging.FieldMerchant, key))
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to insert merchant %s: %w", key, err)
		}
		result.Inserted++
	}
	return result, nil
}

func (s *FirestoreStore) IncrementUsage(ctx context.Context, key string, delta int) error {
	_, err := s.client.Collection(merchantsCollection).Doc(docID(models.MerchantKey(key))).Update(ctx, []firestore.Update{
		{Path: "usageCount", Value: firestore.Increment(delta)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

func (s *FirestoreStore) DeactivateMerchant(ctx context.Context, key string) error {
	_, err := s.client.Collection(merchantsCollection).Doc(docID(models.MerchantKey(key))).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: false},
		{Path: "updatedAt", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to deactivate merchant: %w", err)
	}
	return nil
}

func (s *FirestoreStore) MerchantStats(ctx context.Context, topN int) (MerchantStats, error) {
	docs, err := s.client.Collection(merchantsCollection).Documents(ctx).GetAll()
	if err != nil {
		return MerchantStats{}, fmt.Errorf("failed to read merchants: %w", err)
	}
	all := make([]models.Merchant, 0, len(docs))
	for _, doc := range docs {
		var m models.Merchant
		if err := doc.DataTo(&m); err != nil {
			return MerchantStats{}, fmt.Errorf("failed to parse merchant %s: %w", doc.Ref.ID, err)
		}
		all = append(all, m)
	}
	return computeStats(all, topN), nil
}

func (s *FirestoreStore) FindAnzsicMapping(ctx context.Context, code string) (models.AnzsicMapping, bool, error) {
	doc, err := s.client.Collection(anzsicCollection).Doc(models.NormalizeAnzsicCode(code)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.AnzsicMapping{}, false, nil
	}
	if err != nil {
		return models.AnzsicMapping{}, false, fmt.Errorf("failed to get ANZSIC mapping: %w", err)
	}
	var m models.AnzsicMapping
	if err := doc.DataTo(&m); err != nil {
		return models.AnzsicMapping{}, false, fmt.Errorf("failed to parse ANZSIC mapping: %w", err)
	}
	return m, true, nil
}

func (s *FirestoreStore) ListActiveAnzsicMappings(ctx context.Context) ([]models.AnzsicMapping, error) {
	docs, err := s.client.Collection(anzsicCollection).Where("isActive", "==", true).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list ANZSIC mappings: %w", err)
	}
	out := make([]models.AnzsicMapping, 0, len(docs))
	for _, doc := range docs {
		var m models.AnzsicMapping
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("failed to parse ANZSIC mapping %s: %w", doc.Ref.ID, err)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnzsicCode < out[j].AnzsicCode })
	return out, nil
}

func (s *FirestoreStore) BulkInsertAnzsicMappings(ctx context.Context, mappings []models.AnzsicMapping) (BulkResult, error) {
	var result BulkResult
	for _, m := range mappings {
		code := models.NormalizeAnzsicCode(m.AnzsicCode)
		if code == "" {
			result.Skipped++
			continue
		}
		m.AnzsicCode = code
		_, err := s.client.Collection(anzsicCollection).Doc(code).Create(ctx, m)
		if status.Code(err) == codes.AlreadyExists {
			s.logger.Debug("Skipping duplicate ANZSIC mapping", logging.F("anzsic_code", code))
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to insert ANZSIC mapping %s: %w", code, err)
		}
		result.Inserted++
	}
	return result, nil
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
