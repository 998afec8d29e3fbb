package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Uploader is the part of manager.Uploader the store needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ImageStore keeps product images in a public S3 bucket.
type ImageStore struct {
	uploader Uploader
	bucket   string
	baseURL  string
	now      func() time.Time
}

// NewImageStore stores into bucket. When baseURL is set, returned URLs are
// baseURL/key (for a CDN in front of the bucket); otherwise the upload
// location reported by S3 is used.
func NewImageStore(uploader Uploader, bucket, baseURL string) *ImageStore {
	return &ImageStore{
		uploader: uploader,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// NewS3ImageStore loads the default AWS configuration for region and builds a
// store backed by a real S3 uploader.
func NewS3ImageStore(ctx context.Context, region, bucket, baseURL string) (*ImageStore, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return NewImageStore(manager.NewUploader(client), bucket, baseURL), nil
}

// ObjectKey is products/<id>/<timestamp>-<name>.
func (s *ImageStore) ObjectKey(productID uuid.UUID, filename string) string {
	return fmt.Sprintf("products/%s/%s-%s", productID, s.now().UTC().Format("20060102150405"), cleanFilename(filename))
}

// Upload puts body under the product's prefix with a public-read ACL and
// returns the URL to store on the product.
func (s *ImageStore) Upload(ctx context.Context, productID uuid.UUID, filename, contentType string, body io.Reader) (string, error) {
	const op = "ImageStore.Upload"
	if cleanFilename(filename) == "" {
		return "", models.NewValidationError(op, "filename", "filename is required")
	}
	if body == nil {
		return "", models.NewValidationError(op, "body", "image body is required")
	}

	key := s.ObjectKey(productID, filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + key, nil
	}
	return result.Location, nil
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Join(strings.Fields(name), "-")
}
