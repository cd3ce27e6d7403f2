// Package s3 implements the content store over Amazon S3 or S3-compatible
// storage.
//
// The namespace only needs object metadata (does a fid exist, how large is
// it) and deletion, so this store is intentionally head-only: FetchMeta fans
// a HeadObject call per fid across a bounded worker pool and Delete issues a
// single DeleteObject. Objects are keyed by the decimal fid under an
// optional key prefix, so a bucket can be shared with other tenants.
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// defaultFetchWorkers bounds the HeadObject fan-out of a single FetchMeta
// call. Directory listings batch one lookup per entry, so this caps the
// concurrent S3 requests a large directory can generate.
const defaultFetchWorkers = 8

// ContentStore implements namespace.ContentStore using S3 object metadata.
type ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	workers   int
}

// Config contains configuration for the S3 content store.
type Config struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "trellis/content/" results in keys like "trellis/content/42"
	KeyPrefix string

	// FetchWorkers bounds the metadata fan-out (default: 8)
	FetchWorkers int
}

// NewContentStore creates an S3-backed content store and verifies bucket
// access. The bucket must already exist.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *ContentStore: Initialized store
//   - error: Returns error if bucket access fails or context is cancelled
func NewContentStore(ctx context.Context, cfg Config) (*ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	workers := cfg.FetchWorkers
	if workers <= 0 {
		workers = defaultFetchWorkers
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", cfg.Bucket, err)
	}

	return &ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		workers:   workers,
	}, nil
}

// objectKey builds the S3 key for a fid.
func (s *ContentStore) objectKey(fid namespace.FileID) string {
	return s.keyPrefix + strconv.FormatInt(int64(fid), 10)
}

// FetchMeta resolves metadata for a batch of fids with one HeadObject each,
// spread across a bounded worker pool. Missing objects report Exists ==
// false; any other S3 failure aborts the whole batch.
func (s *ContentStore) FetchMeta(ctx context.Context, fids []namespace.FileID) (map[namespace.FileID]namespace.ContentMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[namespace.FileID]namespace.ContentMeta, len(fids))
	if len(fids) == 0 {
		return out, nil
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	jobs := make(chan namespace.FileID)

	workers := min(s.workers, len(fids))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fid := range jobs {
				meta, err := s.headObject(ctx, fid)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					out[fid] = meta
				}
				mu.Unlock()
			}
		}()
	}

	for _, fid := range fids {
		jobs <- fid
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return out, nil
}

// headObject looks up a single fid. A 404 is a valid answer, not an error.
func (s *ContentStore) headObject(ctx context.Context, fid namespace.FileID) (namespace.ContentMeta, error) {
	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fid)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return namespace.ContentMeta{Exists: false}, nil
		}
		return namespace.ContentMeta{}, fmt.Errorf("failed to head object for fid %d: %w", fid, err)
	}

	return namespace.ContentMeta{Exists: true, Length: aws.ToInt64(result.ContentLength)}, nil
}

// Delete removes the object for fid. S3 DeleteObject succeeds on missing
// keys, so deletion of an unknown fid is a no-op.
func (s *ContentStore) Delete(ctx context.Context, fid namespace.FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fid)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object for fid %d: %w", fid, err)
	}

	return nil
}
