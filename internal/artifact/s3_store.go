package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config locates an artifacts directory uploaded to an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3Store reads artifacts stored under a key prefix of a bucket.
type S3Store struct {
	client     *minio.Client
	bucketName string
	prefix     string
	maxBytes   int64
}

// NewS3Store validates cfg and creates the client. No request is made until the first read.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{
		client:     client,
		bucketName: bucket,
		prefix:     normalizePrefix(cfg.Prefix),
		maxBytes:   maxBlobBytes,
	}, nil
}

// NewS3Provider is a HardhatProvider over an S3Store.
func NewS3Provider(cfg S3Config, opts ...Option) (*HardhatProvider, error) {
	store, err := NewS3Store(cfg)
	if err != nil {
		return nil, err
	}
	return NewHardhatProvider(store, opts...)
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func (s *S3Store) objectKey(name string) string {
	return s.prefix + strings.TrimLeft(strings.TrimSpace(name), "/")
}

func (s *S3Store) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.objectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := readLimited(obj, name, s.maxBytes)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
		}
		return nil, err
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, 64)
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if strings.HasPrefix(name, buildInfoDir+"/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
