package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Image is an uploaded prescription image. The store never inspects Body.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Submitter hands an image to a submission backend and returns an opaque
// reference to it
type Submitter interface {
	Submit(ctx context.Context, userID string, image Image) (string, error)
}

// DelaySubmitter simulates submission latency and keeps nothing
type DelaySubmitter struct {
	delay time.Duration
}

// NewDelaySubmitter creates a submitter that waits delay before succeeding
func NewDelaySubmitter(delay time.Duration) *DelaySubmitter {
	return &DelaySubmitter{delay: delay}
}

// Submit waits for the configured delay or until ctx is done
func (s *DelaySubmitter) Submit(ctx context.Context, userID string, image Image) (string, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("local://%s/%s%s", userID, uuid.New().String(), imageExt(image.Filename)), nil
}

// S3Submitter stores prescription images in an S3 bucket
type S3Submitter struct {
	s3Client *s3.Client
	s3Bucket string
	region   string
	endpoint string
}

// NewS3Submitter creates an S3-backed submitter. A custom endpoint switches
// the client to path-style addressing for S3-compatible stores.
func NewS3Submitter(ctx context.Context, awsRegion, s3Bucket, accessKey, secretKey, endpoint string) (*S3Submitter, error) {
	if s3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(awsRegion)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Submitter{
		s3Client: s3Client,
		s3Bucket: s3Bucket,
		region:   awsRegion,
		endpoint: endpoint,
	}, nil
}

// Submit uploads the image under prescriptions/{user_id}/{uuid}{ext}
func (s *S3Submitter) Submit(ctx context.Context, userID string, image Image) (string, error) {
	// Buffer so the SDK gets a seekable body with a known length
	data, err := io.ReadAll(image.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	key := fmt.Sprintf("prescriptions/%s/%s%s", userID, uuid.New().String(), imageExt(image.Filename))

	contentType := image.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *S3Submitter) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.s3Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Bucket, s.region, key)
}

func imageExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ".jpg"
	}
	return ext
}
