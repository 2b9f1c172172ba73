package drive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Service stores simulated document uploads in a MinIO bucket. A nil Service
// is valid and silently skips storage — drive links stay synthetic either way.
type Service struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and ensures the bucket exists. Returns an error when
// the endpoint is unreachable; callers are expected to continue without
// object storage.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &Service{client: client, bucket: bucket}, nil
}

// Store persists an uploaded payload under the deterministic object key.
// Failures are logged and swallowed: the in-flight submission remains
// authoritative, storage is best effort.
func (s *Service) Store(ctx context.Context, clientName, requestID, documentName, contentType string, payload []byte) {
	if s == nil || len(payload) == 0 {
		return
	}
	key := ObjectKey(clientName, requestID, documentName)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Printf("drive: store %s: %v", key, err)
	}
}
