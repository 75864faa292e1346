package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gymhub/api/internal/config"
)

// ObjectStore holds archived audit exports. Live data never moves through
// it; only the retention job writes here.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketAudit)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketAudit, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketAudit, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketAudit, err)
		}
	}
	return nil
}

// PutAuditArchive uploads one JSON export under audit/<name>.
func (s *ObjectStore) PutAuditArchive(ctx context.Context, name string, payload []byte) error {
	objectName := "audit/" + name
	_, err := s.client.PutObject(ctx, s.cfg.BucketAudit, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put %s: %w", objectName, err)
	}
	return nil
}
