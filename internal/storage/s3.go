package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/transcribepro/transcribepro/internal/config"
	"github.com/transcribepro/transcribepro/internal/metrics"
)

// S3Store stores transcripts in an S3-compatible object store.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
	log    zerolog.Logger
}

// NewS3Store creates an S3 transcript store from config.
func NewS3Store(cfg config.S3Config, log zerolog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
		log:    log.With().Str("component", "s3-store").Logger(),
	}, nil
}

// HeadBucket checks that the bucket exists and credentials are valid.
func (s *S3Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &s.bucket,
	})
	return err
}

func (s *S3Store) Save(ctx context.Context, text string) (Transcript, error) {
	created := s.now()
	name := NameFor(created)
	for {
		exists, err := s.exists(ctx, name)
		if err != nil {
			return Transcript{}, err
		}
		if !exists {
			break
		}
		created = created.Add(time.Millisecond)
		name = NameFor(created)
	}

	key := s.objectKey(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        strings.NewReader(text),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("put %s: %w", key, err)
	}

	metrics.TranscriptsSavedTotal.Inc()
	s.log.Debug().Str("key", key).Msg("transcript saved")
	return Transcript{Name: name, Text: text, CreatedAt: time.UnixMilli(created.UnixMilli())}, nil
}

func (s *S3Store) List(ctx context.Context) ([]Transcript, error) {
	prefix := s.objectKey("")
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &prefix,
	})

	out := []Transcript{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if !nameRe.MatchString(name) {
				continue
			}
			t, err := s.Get(ctx, name)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *S3Store) Get(ctx context.Context, name string) (Transcript, error) {
	created, err := ParseName(name)
	if err != nil {
		return Transcript{}, err
	}
	key := s.objectKey(name)
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Transcript{}, ErrNotFound
		}
		return Transcript{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return Transcript{}, fmt.Errorf("read %s: %w", key, err)
	}
	return Transcript{Name: name, Text: string(data), CreatedAt: created}, nil
}

// Delete removes the object. S3 deletes are idempotent, so existence is
// checked first to report ErrNotFound.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	if _, err := ParseName(name); err != nil {
		return err
	}
	exists, err := s.exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	key := s.objectKey(name)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Type() string { return "s3" }

func (s *S3Store) exists(ctx context.Context, name string) (bool, error) {
	key := s.objectKey(name)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

func (s *S3Store) objectKey(name string) string {
	if s.prefix != "" {
		return s.prefix + "/transcripts/" + name
	}
	return "transcripts/" + name
}
