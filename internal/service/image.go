package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plateful/backend/config"
)

// ImageService stores base64-encoded uploads (recipe images, avatars) in S3
// and hands back a public URL. When no S3 configuration is present the
// service is disabled and callers keep the submitted value untouched.
type ImageService struct {
	s3Config *config.S3Config
}

func NewImageService(s3Config *config.S3Config) *ImageService {
	return &ImageService{s3Config: s3Config}
}

func (s *ImageService) Enabled() bool {
	return s != nil && s.s3Config != nil
}

// StoreBase64 decodes a data-URI (or bare base64) payload and uploads it
// under keyPrefix with a random object name.
func (s *ImageService) StoreBase64(ctx context.Context, data, keyPrefix string) (string, error) {
	contentType := "image/png"
	ext := "png"
	if strings.HasPrefix(data, "data:") {
		header, rest, found := strings.Cut(data, ",")
		if !found {
			return "", newValidationError("image", "malformed data URI")
		}
		data = rest
		contentType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		if _, sub, ok := strings.Cut(contentType, "/"); ok {
			ext = sub
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", newValidationError("image", "invalid base64 image data")
	}

	key := fmt.Sprintf("%s/%s.%s", keyPrefix, uuid.NewString(), ext)
	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(decoded),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Debug().Str("key", key).Str("content_type", contentType).Msg("stored image")
	return url, nil
}
