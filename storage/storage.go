package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/codewaveai/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ObjectStore holds uploaded site assets and serves them back by public URL.
type ObjectStore interface {
	Upload(ctx context.Context, folder, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// objectAPI is the slice of the minio client we use, kept narrow so tests can
// stand in for a real server.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type clientWrapper struct{ c *minio.Client }

func (w clientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}

func (w clientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}

func (w clientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (w clientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}

// Client stores site assets in a single bucket and exposes their public
// URLs. The bucket is expected to carry an anonymous read policy.
type Client struct {
	api       objectAPI
	bucket    string
	publicURL string
	logger    session.Logger
	newKey    func(filename string) string
}

var _ ObjectStore = (*Client)(nil)

// NewClient wires the store over a real minio client.
func NewClient(ctx context.Context, client *minio.Client, bucket, publicURL string) (*Client, error) {
	return NewClientWithAPI(ctx, clientWrapper{c: client}, bucket, publicURL)
}

// NewClientWithAPI lets tests inject a fake API.
func NewClientWithAPI(ctx context.Context, api objectAPI, bucket, publicURL string) (*Client, error) {
	_, logger := session.ResolveLogger("storage", nil, nil)

	c := &Client{
		api:       api,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
		newKey:    randomKey,
	}

	if err := c.ensureBucketExists(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to ensure bucket exists").
			WithMetadata(map[string]any{"bucket": bucket})
	}

	return c, nil
}

func (c *Client) WithLogger(l session.Logger) *Client {
	_, c.logger = session.ResolveLogger("storage", nil, l)
	return c
}

func (c *Client) ensureBucketExists(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}

	if !exists {
		if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
		c.logger.Info("created storage bucket", "bucket", c.bucket)
	}

	return nil
}

// Upload stores the object under a random key inside folder and returns its
// public URL. The original filename only contributes its extension.
func (c *Client) Upload(ctx context.Context, folder, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	key := c.newKey(filename)
	if folder != "" {
		key = path.Join(folder, key)
	}

	_, err := c.api.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to upload object").
			WithMetadata(map[string]any{"bucket": c.bucket, "key": key})
	}

	c.logger.Debug("object uploaded", "bucket", c.bucket, "key", key)

	return c.PublicURL(key), nil
}

// Remove deletes an object by key or by its public URL.
func (c *Client) Remove(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, c.publicURL+"/"+c.bucket+"/")

	if err := c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete object").
			WithMetadata(map[string]any{"bucket": c.bucket, "key": key})
	}

	return nil
}

// PublicURL builds the anonymous access URL for a stored key.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicURL, c.bucket, key)
}

func randomKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return uuid.NewString() + ext
}
