package memoize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// createdMetaKey is the user-metadata field stamped on every entry at write
// time with an ISO-8601 UTC timestamp.
const createdMetaKey = "Created"

// objectStore is the store surface the memoizer depends on. Satisfied by
// Store; tests substitute an in-memory implementation.
type objectStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Put(ctx context.Context, key string, value any) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	EvictOne(ctx context.Context, oldest bool) error
	SetExpiration(ctx context.Context, days int) error
	ClearExpiration(ctx context.Context) error
}

// Store is an eviction-capable key/value store over one bucket (optionally
// one prefix within it). Each entry is a single object whose body is the
// UTF-8 JSON encoding of the cached value.
//
// Store itself holds no state between calls; the bucket's contents are the
// only state. It is safe for concurrent use to the extent the bucket is:
// concurrent writers race and the last write wins.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
	policy Policy
}

// NewStore creates a bucket-backed store. Cache parameters in cfg (MaxSize,
// Typed) are not used here; they belong to the memoizer built on top.
func NewStore(cfg Config, policy Policy) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, wrapError(err, "failed to create storage client")
		}
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix),
		policy: policy,
	}, nil
}

// objectKey joins the store prefix with the entry key.
func (s *Store) objectKey(key string) string {
	return s.prefix + key
}

// Get downloads the entry named key and reports whether it was found. Under
// PolicyLRU a successful read also refreshes the entry's recency.
//
// Any failure — transport error, missing object, invalid payload, failed
// recency refresh — yields absent. A storage outage is therefore
// indistinguishable from a true miss: the caller recomputes and re-stores.
// This keeps the cache transparent at the cost of conflating the two cases.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, false
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, false
	}
	if !json.Valid(data) {
		return nil, false
	}

	if s.policy == PolicyLRU {
		if err := s.Touch(ctx, key); err != nil {
			return nil, false
		}
	}

	return json.RawMessage(data), true
}

// Put serializes value to JSON and uploads it as the object named key,
// stamping the object with a Created timestamp. An existing entry under the
// same key is overwritten.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "cache value is not JSON-serializable")
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.objectKey(key),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				createdMetaKey: time.Now().UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return wrapError(err, "failed to store cache entry")
	}

	return nil
}

// Touch refreshes an entry's modification time without changing its value.
// The substrate has no native touch, so the object is copied onto itself
// with its metadata replaced. This is a full content rewrite: it costs a
// server-side copy per read and can race with concurrent writers.
func (s *Store) Touch(ctx context.Context, key string) error {
	k := s.objectKey(key)

	// The existing user metadata must be carried over explicitly: a
	// copy-onto-self requires the metadata-replace directive, which would
	// otherwise drop the Created stamp.
	stat, err := s.client.StatObject(ctx, s.bucket, k, minio.StatObjectOptions{})
	if err != nil {
		return wrapError(err, "failed to stat cache entry")
	}

	src := minio.CopySrcOptions{Bucket: s.bucket, Object: k}
	dst := minio.CopyDestOptions{
		Bucket:          s.bucket,
		Object:          k,
		UserMetadata:    stat.UserMetadata,
		ReplaceMetadata: true,
	}

	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		return wrapError(err, "failed to touch cache entry")
	}

	return nil
}

// Count returns the number of entries currently stored. This is a full
// listing on every call, O(n) in the number of entries; correctness over
// speed.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return 0, wrapError(object.Err, "failed to list cache entries")
		}
		count++
	}
	return count, nil
}

// EvictOne deletes a single entry chosen by modification time: the oldest
// entry when oldest is true, the most recent otherwise. Returns
// ErrEmptyStore if no entries exist.
//
// The choice requires scanning every entry's timestamp; the store keeps no
// index of its own.
func (s *Store) EvictOne(ctx context.Context, oldest bool) error {
	var objects []minio.ObjectInfo
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return wrapError(object.Err, "failed to list cache entries")
		}
		objects = append(objects, object)
	}

	victim, ok := selectVictim(objects, oldest)
	if !ok {
		return ErrEmptyStore
	}

	err := s.client.RemoveObject(ctx, s.bucket, victim, minio.RemoveObjectOptions{})
	if err != nil {
		return wrapError(err, "failed to evict cache entry")
	}

	return nil
}

// selectVictim picks the object with the minimum (oldest) or maximum
// modification time. Ties keep the earlier-listed object.
func selectVictim(objects []minio.ObjectInfo, oldest bool) (string, bool) {
	if len(objects) == 0 {
		return "", false
	}

	victim := objects[0]
	for _, o := range objects[1:] {
		if oldest {
			if o.LastModified.Before(victim.LastModified) {
				victim = o
			}
		} else {
			if o.LastModified.After(victim.LastModified) {
				victim = o
			}
		}
	}
	return victim.Key, true
}

// Clear deletes every entry in the store.
func (s *Store) Clear(ctx context.Context) error {
	objectsCh := make(chan minio.ObjectInfo, 100)

	// Launch lister goroutine feeding the batch-remove API
	var listErr error
	go func() {
		defer close(objectsCh)
		for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    s.prefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				listErr = object.Err
				return
			}
			objectsCh <- object
		}
	}()

	errorCh := s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{})

	var errList []error
	for err := range errorCh {
		if err.Err != nil {
			errList = append(errList, err.Err)
		}
	}

	if listErr != nil {
		return wrapError(listErr, "failed to list cache entries")
	}
	if len(errList) > 0 {
		return wrapError(errList[0], "failed to clear cache entries")
	}

	return nil
}

// SetExpiration installs a bucket lifecycle rule deleting entries older than
// days. Only one expiration rule is active at a time; setting a new value
// replaces the previous rule. days must be a positive integer.
//
// Expiration applies from each entry's last modification, so under PolicyLRU
// a touch restarts the clock.
func (s *Store) SetExpiration(ctx context.Context, days int) error {
	if days <= 0 {
		return errors.Newf(errors.CodeInvalidConfig,
			"expiration days must be a positive integer, got %d", days)
	}

	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:         expirationRuleID(days),
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: s.prefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
		},
	}

	if err := s.client.SetBucketLifecycle(ctx, s.bucket, cfg); err != nil {
		return wrapError(err, "failed to set expiration rule")
	}

	return nil
}

// ClearExpiration removes any expiration rule from the bucket. Removing a
// rule that was never set is not an error.
func (s *Store) ClearExpiration(ctx context.Context) error {
	// An empty lifecycle configuration deletes the bucket's lifecycle
	if err := s.client.SetBucketLifecycle(ctx, s.bucket, lifecycle.NewConfiguration()); err != nil {
		return wrapError(err, "failed to clear expiration rule")
	}
	return nil
}

// expirationRuleID builds the fixed rule identifier for an expiration rule.
func expirationRuleID(days int) string {
	return fmt.Sprintf("Expire after %d days", days)
}

// Compile-time interface check.
var _ objectStore = (*Store)(nil)
