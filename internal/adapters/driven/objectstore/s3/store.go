// Package s3 implements the object store port over Amazon S3 and
// S3-compatible services using the AWS SDK v2.
//
// The client carries no credentials of its own. Every request is signed
// with the credentials passed to that call, so signing out or switching
// users never leaves state behind in the client.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ObjectStore = (*Store)(nil)

// Store is an S3 object store with a client-side request limiter.
type Store struct {
	client  *s3.Client
	limiter *rate.Limiter
}

// New creates a store from remote settings. Region and endpoint come from
// settings; the shared AWS config supplies everything else.
func New(ctx context.Context, settings domain.RemoteSettings) (*Store, error) {
	region := settings.Region
	if region == "" {
		region = domain.DefaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		}
		o.UsePathStyle = settings.UsePathStyle
	})
	return NewWithClient(client, settings), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, settings domain.RemoteSettings) *Store {
	return &Store{
		client:  client,
		limiter: newLimiter(settings.RequestsPerSecond, settings.RequestBurst),
	}
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// ListKeys returns all keys under prefix, following continuation tokens.
func (s *Store) ListKeys(ctx context.Context, creds domain.Credentials, bucket, prefix string) ([]string, error) {
	signer, err := withCredentials(creds)
	if err != nil {
		return nil, err
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx, signer)
		if err != nil {
			return nil, fmt.Errorf("S3 list objects failed: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// GetObject returns the object body. A missing key returns domain.ErrNotFound.
func (s *Store) GetObject(ctx context.Context, creds domain.Credentials, bucket, key string) ([]byte, error) {
	signer, err := withCredentials(creds)
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, signer)
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("S3 get object failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("S3 read body failed: %w", err)
	}
	return data, nil
}

// PutObject writes body at key.
func (s *Store) PutObject(ctx context.Context, creds domain.Credentials, bucket, key string, body []byte) error {
	signer, err := withCredentials(creds)
	if err != nil {
		return err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}, signer)
	if err != nil {
		return fmt.Errorf("S3 put object failed: %w", err)
	}
	return nil
}

// DeleteObject removes key.
func (s *Store) DeleteObject(ctx context.Context, creds domain.Credentials, bucket, key string) error {
	signer, err := withCredentials(creds)
	if err != nil {
		return err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, signer)
	if err != nil {
		return fmt.Errorf("S3 delete object failed: %w", err)
	}
	return nil
}

// withCredentials scopes creds to a single request.
func withCredentials(creds domain.Credentials) (func(*s3.Options), error) {
	if !creds.HasKeys() {
		return nil, fmt.Errorf("%w: no access keys", domain.ErrStoreUnavailable)
	}
	provider := credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
	)
	return func(o *s3.Options) {
		o.Credentials = provider
	}, nil
}
