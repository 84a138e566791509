package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gittogether/api/internal/config"
	"gittogether/api/internal/media/sniffer"
)

// ObjectStore fronts the profile image bucket. Uploads happen directly
// against the bucket; the API only checks keys and signs read URLs.
type ObjectStore struct {
	client *minio.Client
	bucket string
	region string
	ttl    time.Duration
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

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		ttl:    ttl,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ImageContentType sniffs the leading bytes of key. exists is false when the
// object is missing; mime is empty when it is not a supported image.
func (s *ObjectStore) ImageContentType(ctx context.Context, key string) (mime string, exists bool, err error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(0, sniffer.HeadSize-1); err != nil {
		return "", false, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return "", false, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	mime, err = sniffer.Detect(obj)
	switch {
	case err == nil:
		return mime, true, nil
	case errors.Is(err, sniffer.ErrUnsupported):
		return "", true, nil
	case isNotFound(err):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("read object %s: %w", key, err)
	}
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

// PresignGet returns a short-lived read URL for key.
func (s *ObjectStore) PresignGet(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("empty object key")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
