package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by NewFromDriver. An empty name means DriverMemory.
const (
	DriverS3     = "s3"
	DriverMinIO  = "minio"
	DriverGCS    = "gcs"
	DriverMemory = "memory"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the bucket plus per-driver settings; only the
// selected driver's field is read.
type FactoryOptions struct {
	Bucket string
	S3     S3Options
	MinIO  MinIOOptions
	GCS    GCSOptions
}

func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		name = DriverMemory
	}

	switch name {
	case DriverMemory:
		return NewMemory(opts.Bucket), nil
	case DriverS3:
		return NewS3(ctx, opts.Bucket, opts.S3)
	case DriverMinIO:
		return NewMinIO(ctx, opts.Bucket, opts.MinIO)
	case DriverGCS:
		return NewGCS(ctx, opts.Bucket, opts.GCS)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
