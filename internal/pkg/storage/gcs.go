package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage on Google Cloud Storage bucket handles. It
// also backs the Firebase driver, which only differs in how buckets resolve.
type GCSAdapter struct {
	bucket func(name string) (*gcs.BucketHandle, error)
	close  func() error
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	ClientOptions []option.ClientOption
}

// NewGCS constructs a GCS adapter.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client, err := gcs.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}

	return &GCSAdapter{
		bucket: func(name string) (*gcs.BucketHandle, error) { return client.Bucket(name), nil },
		close:  client.Close,
	}, nil
}

// PutObject stores data in the bucket.
func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	bh, err := g.bucket(bucket)
	if err != nil {
		return ObjectInfo{}, err
	}

	writer := bh.Object(key).NewWriter(ctx)
	writer.ContentType = opts.ContentType
	writer.Metadata = opts.Metadata

	if _, err := io.Copy(writer, r); err != nil {
		return ObjectInfo{}, errors.Join(err, writer.Close())
	}
	if err := writer.Close(); err != nil {
		return ObjectInfo{}, err
	}

	return gcsAttrsToInfo(writer.Attrs()), nil
}

// GetObject retrieves an object from the bucket.
func (g *GCSAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	bh, err := g.bucket(bucket)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	reader, err := bh.Object(key).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, gcsError(err)
	}

	return reader, ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        reader.Attrs.Size,
		ContentType: reader.Attrs.ContentType,
		UpdatedAt:   reader.Attrs.LastModified,
	}, nil
}

// StatObject returns metadata for an object.
func (g *GCSAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	bh, err := g.bucket(bucket)
	if err != nil {
		return ObjectInfo{}, err
	}

	attrs, err := bh.Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, gcsError(err)
	}
	return gcsAttrsToInfo(attrs), nil
}

// Close releases the underlying client.
func (g *GCSAdapter) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

func gcsError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}

func gcsAttrsToInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	if attrs == nil {
		return ObjectInfo{}
	}
	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
		UpdatedAt:   attrs.Updated,
	}
}
