// ABOUTME: S3-compatible object storage state backend built on minio-go
// ABOUTME: Keeps the snapshot as one JSON object in a bucket
package db

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Location is the parsed form of s3://bucket/key?endpoint=host:port&secure=false.
type S3Location struct {
	Endpoint string
	Bucket   string
	Key      string
	Secure   bool
}

func ParseS3DSN(u *url.URL) (S3Location, error) {
	loc := S3Location{
		Endpoint: "s3.amazonaws.com",
		Bucket:   u.Host,
		Key:      strings.TrimPrefix(u.Path, "/"),
		Secure:   true,
	}
	if loc.Bucket == "" {
		return S3Location{}, fmt.Errorf("s3 dsn %q is missing a bucket", u.Redacted())
	}
	if loc.Key == "" {
		loc.Key = StateKey + ".json"
	}

	q := u.Query()
	if endpoint := q.Get("endpoint"); endpoint != "" {
		loc.Endpoint = endpoint
	}
	if v := q.Get("secure"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return S3Location{}, fmt.Errorf("invalid secure flag %q: %w", v, err)
		}
		loc.Secure = secure
	}
	return loc, nil
}

type S3Backend struct {
	client *minio.Client
	loc    S3Location
}

// OpenS3Backend reads credentials from AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY
// and creates the bucket if it does not exist.
func OpenS3Backend(ctx context.Context, u *url.URL) (*S3Backend, error) {
	loc, err := ParseS3DSN(u)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(loc.Endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			os.Getenv("AWS_SESSION_TOKEN"),
		),
		Secure: loc.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, loc.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", loc.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, loc.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", loc.Bucket, err)
		}
	}

	return &S3Backend{client: client, loc: loc}, nil
}

func (b *S3Backend) Load(ctx context.Context) (*Snapshot, error) {
	obj, err := b.client.GetObject(ctx, b.loc.Bucket, b.loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get snapshot object: %w", err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot object: %w", err)
	}
	return DecodeSnapshot(data)
}

func (b *S3Backend) Save(ctx context.Context, snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = b.client.PutObject(ctx, b.loc.Bucket, b.loc.Key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put snapshot object: %w", err)
	}
	return nil
}

func (b *S3Backend) Close() error {
	return nil
}
