package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSOptions configures Google Cloud Storage client initialization.
type GCSOptions struct {
	ClientOptions []option.ClientOption
	// GoogleAccessID and PrivateKey sign URLs with a service account key.
	// When empty the library detects a signer from the client credentials.
	GoogleAccessID string
	PrivateKey     []byte
}

// GCS implements Storage using cloud.google.com/go/storage.
type GCS struct {
	bucket         string
	client         *gcs.Client
	googleAccessID string
	privateKey     []byte
}

// NewGCS creates the client. The bucket is not checked until first use.
func NewGCS(ctx context.Context, bucket string, opts GCSOptions) (*GCS, error) {
	client, err := gcs.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}

	return &GCS{
		bucket:         bucket,
		client:         client,
		googleAccessID: opts.GoogleAccessID,
		privateKey:     opts.PrivateKey,
	}, nil
}

func (g *GCS) object(key string) *gcs.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(key)
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	if _, err := io.Copy(w, r); err != nil {
		return ObjectInfo{}, errors.Join(err, w.Close())
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}
	return gcsInfo(w.Attrs()), nil
}

func (g *GCS) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj := g.object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, ObjectInfo{}, gcsError(err)
	}

	rd, err := obj.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, gcsError(err)
	}
	return rd, gcsInfo(attrs), nil
}

func (g *GCS) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	attrs, err := g.object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, gcsError(err)
	}
	return gcsInfo(attrs), nil
}

// Delete removes the object. A missing key is not an error, as on S3.
func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCS) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})

	objects := make([]ObjectInfo, 0)
	for limit <= 0 || len(objects) < limit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, gcsInfo(attrs))
	}

	return objects, nil
}

func (g *GCS) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	return g.client.Bucket(g.bucket).SignedURL(key, g.signOptions(http.MethodGet, "", expiry))
}

func (g *GCS) PresignPut(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	return g.client.Bucket(g.bucket).SignedURL(key, g.signOptions(http.MethodPut, contentType, expiry))
}

func (g *GCS) signOptions(method, contentType string, expiry time.Duration) *gcs.SignedURLOptions {
	return &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         method,
		ContentType:    contentType,
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.googleAccessID,
		PrivateKey:     g.privateKey,
	}
}

func (g *GCS) Close() error { return g.client.Close() }

func gcsError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	return err
}

func gcsInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	if attrs == nil {
		return ObjectInfo{}
	}
	return ObjectInfo{
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
		UpdatedAt:   attrs.Updated,
	}
}
