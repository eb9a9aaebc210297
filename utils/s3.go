package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

var ErrInvalidDataURI = errors.New("invalid base64 image")

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore uploads meal photos and avatars to S3.
type ImageStore struct {
	client    s3API
	bucket    string
	region    string
	publicURL string
}

func NewImageStore(ctx context.Context, region, bucket, publicURL string) (*ImageStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}
	return newImageStore(s3.NewFromConfig(cfg), region, bucket, publicURL), nil
}

func newImageStore(client s3API, region, bucket, publicURL string) *ImageStore {
	return &ImageStore{
		client:    client,
		bucket:    bucket,
		region:    region,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Upload stores data under <prefix>/<uuid><ext> and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), ExtensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}
	return s.URL(key), nil
}

// URL is the public address of key, via CloudFront when configured.
func (s *ImageStore) URL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "image/heif":
		return ".heif"
	default:
		if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 && parts[1] != "" {
			return "." + parts[1]
		}
		return ""
	}
}

// DecodeDataURI splits "data:<mime>;base64,<data>" into bytes and content
// type. A bare base64 string is accepted with an empty content type.
func DecodeDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var contentType string
	if strings.HasPrefix(s, "data:") {
		meta, data, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, "", ErrInvalidDataURI
		}
		contentType = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
		s = data
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(raw) == 0 {
		return nil, "", ErrInvalidDataURI
	}
	return raw, contentType, nil
}
