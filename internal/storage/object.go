package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/csv-backend/backend/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig describes an S3-compatible bucket used as the volume.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// ObjectVolume implements Volume on top of a MinIO/S3 bucket.
type ObjectVolume struct {
	client *minio.Client
	bucket string
	prefix string
}

// IsObjectURL reports whether a VOLUME value names a bucket ("s3://...").
func IsObjectURL(raw string) bool {
	return strings.HasPrefix(raw, "s3://")
}

// ParseObjectURL splits "s3://bucket/some/prefix" into bucket and prefix.
func ParseObjectURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid object volume %q: want s3://bucket[/prefix]", raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}

// NewObjectVolume connects to the bucket and checks that it exists.
func NewObjectVolume(ctx context.Context, cfg ObjectConfig) (*ObjectVolume, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("object volume configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket does not exist: %s", cfg.Bucket)
	}

	return &ObjectVolume{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (v *ObjectVolume) key(name string) string {
	if v.prefix == "" {
		return name
	}
	return path.Join(v.prefix, name)
}

// Save uploads r as one object; an existing object of the same key is replaced.
func (v *ObjectVolume) Save(ctx context.Context, name string, r io.Reader) (*models.StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	info, err := v.client.PutObject(ctx, v.bucket, v.key(name), r, -1, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return nil, fmt.Errorf("putting object: %w", err)
	}

	return &models.StoredFile{
		Name:       name,
		Size:       info.Size,
		ModifiedAt: info.LastModified,
	}, nil
}

func (v *ObjectVolume) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	obj, err := v.client.GetObject(ctx, v.bucket, v.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

func (v *ObjectVolume) List(ctx context.Context, limit int) ([]*models.StoredFile, error) {
	prefix := ""
	if v.prefix != "" {
		prefix = v.prefix + "/"
	}

	var list []*models.StoredFile
	for obj := range v.client.ListObjects(ctx, v.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing objects: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") || !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		list = append(list, &models.StoredFile{
			Name:       name,
			Size:       obj.Size,
			ModifiedAt: obj.LastModified,
		})
	}

	sortNewestFirst(list)

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Location returns the volume as an s3:// URL.
func (v *ObjectVolume) Location() string {
	if v.prefix == "" {
		return "s3://" + v.bucket
	}
	return "s3://" + v.bucket + "/" + v.prefix
}
