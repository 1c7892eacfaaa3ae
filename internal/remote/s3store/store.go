// Package s3store keeps remote lists as JSON objects in an S3 bucket,
// one object per list under <prefix>lists/.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"todo/internal/logging"
	"todo/internal/service"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRegion  = "us-east-1"

	// deleteBatch is the DeleteObjects limit.
	deleteBatch = 1000
)

// API is the subset of *s3.Client the store uses.
type API interface {
	s3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Config locates the bucket.
type Config struct {
	Bucket string
	Prefix string

	// Region defaults to us-east-1.
	Region string

	// Endpoint selects an S3-compatible server such as MinIO and turns on
	// path-style addressing.
	Endpoint string

	// AccessKey and SecretKey override the default credential chain.
	AccessKey string
	SecretKey string
}

// Store implements the remote list store over S3.
type Store struct {
	api     API
	bucket  string
	prefix  string
	timeout time.Duration
	logger  logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// Open builds an S3 client from cfg and checks that the bucket is reachable.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, service.ConfigError(fmt.Sprintf("aws config: %v", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	s := New(client, cfg.Bucket, cfg.Prefix, opts...)

	headCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.api.HeadBucket(headCtx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return nil, wrapError(err, "open bucket %q", s.bucket)
	}
	s.logger.Debug(ctx, "s3 store opened", "bucket", s.bucket, "prefix", s.prefix)
	return s, nil
}

// New wraps an existing client.
func New(api API, bucket, prefix string, opts ...Option) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	s := &Store{
		api:     api,
		bucket:  bucket,
		prefix:  prefix,
		timeout: defaultTimeout,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op; the SDK client holds no connections that need closing.
func (s *Store) Close() error { return nil }

type document struct {
	Name  string         `json:"name"`
	Items []service.Item `json:"items"`
}

func (s *Store) listsPrefix() string {
	return s.prefix + "lists/"
}

func (s *Store) key(name string) string {
	return s.listsPrefix() + url.PathEscape(name) + ".json"
}

// FindAll reads every list object.
func (s *Store) FindAll(ctx context.Context) ([]service.List, error) {
	keys, err := s.keys(ctx, s.listsPrefix())
	if err != nil {
		return nil, err
	}

	var result []service.List
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		list, err := s.get(ctx, key)
		if err != nil {
			return nil, err
		}
		result = append(result, list)
	}
	return result, nil
}

// FindOne reads the named list.
func (s *Store) FindOne(ctx context.Context, name string) (service.List, error) {
	list, err := s.get(ctx, s.key(name))
	if isNotFound(err) {
		return service.List{}, service.ListNotFound(name)
	}
	return list, err
}

// Upsert writes the list object unconditionally.
func (s *Store) Upsert(ctx context.Context, list service.List) error {
	return s.put(ctx, list, false)
}

// Insert writes the list object only when no object exists under its key.
func (s *Store) Insert(ctx context.Context, list service.List) error {
	return s.put(ctx, list, true)
}

// DeleteOne removes the named list.
func (s *Store) DeleteOne(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := s.key(name)
	if _, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		if isNotFound(err) {
			return service.ListNotFound(name)
		}
		return wrapError(err, "head %s", key)
	}
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return wrapError(err, "delete %s", key)
	}
	return nil
}

// DeleteAll removes every list object.
func (s *Store) DeleteAll(ctx context.Context) error {
	return s.deletePrefix(ctx, s.listsPrefix())
}

// Drop removes the lists collection. Other objects in the bucket, under
// the store prefix or not, are left alone.
func (s *Store) Drop(ctx context.Context) error {
	return s.deletePrefix(ctx, s.listsPrefix())
}

func (s *Store) get(ctx context.Context, key string) (service.List, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return service.List{}, err
		}
		return service.List{}, wrapError(err, "get %s", key)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return service.List{}, wrapError(err, "read %s", key)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return service.List{}, service.SerializationError(fmt.Sprintf("%s: %v", key, err))
	}
	if doc.Name == "" {
		return service.List{}, service.SerializationError(fmt.Sprintf("%s: missing list name", key))
	}
	if doc.Items == nil {
		doc.Items = []service.Item{}
	}
	return service.List{Name: doc.Name, Items: doc.Items}, nil
}

func (s *Store) put(ctx context.Context, list service.List, create bool) error {
	if list.Name == "" {
		return service.InvalidInput("list name must not be empty")
	}
	doc := document{Name: list.Name, Items: list.Items}
	if doc.Items == nil {
		doc.Items = []service.Item{}
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return service.SerializationError(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(list.Name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}
	if create {
		in.IfNoneMatch = aws.String("*")
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		if create && isPreconditionFailed(err) {
			return service.RemoteError(fmt.Sprintf("list %q already exists", list.Name))
		}
		return wrapError(err, "put %s", *in.Key)
	}
	return nil
}

func (s *Store) keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var keys []string
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrapError(err, "list %s", prefix)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *Store) deletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.keys(ctx, prefix)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for start := 0; start < len(keys); start += deleteBatch {
		end := min(start+deleteBatch, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return wrapError(err, "delete objects")
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return service.RemoteError(fmt.Sprintf("delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
	}
	s.logger.Debug(ctx, "objects deleted", "prefix", prefix, "count", len(keys))
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

func isPreconditionFailed(err error) bool {
	var apiErr interface{ ErrorCode() string }
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}

func wrapError(err error, format string, args ...any) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return service.RemoteError(fmt.Sprintf(format, args...) + ": request timed out")
	}
	return service.Remotef(err, format, args...)
}
