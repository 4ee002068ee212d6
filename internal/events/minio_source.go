package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
)

const objectCreatedEvent = "s3:ObjectCreated:*"

// ResponseUploadEvent fires when carrier correspondence lands in the
// bucket under responses/<claim_id>/<filename>.
type ResponseUploadEvent struct {
	ClaimID   string
	Filename  string
	ObjectKey string
	EventName string
}

type ResponseEventSource interface {
	Run(ctx context.Context, handler func(context.Context, ResponseUploadEvent) error) error
}

type MinioResponseEventSource struct {
	client *minio.Client
	bucket string
	prefix string
	suffix string
}

func NewMinioResponseEventSource(client *minio.Client, bucket string, prefix string, suffix string) *MinioResponseEventSource {
	return &MinioResponseEventSource{
		client: client,
		bucket: bucket,
		prefix: prefix,
		suffix: suffix,
	}
}

func (s *MinioResponseEventSource) Run(ctx context.Context, handler func(context.Context, ResponseUploadEvent) error) error {
	notificationCh := s.client.ListenBucketNotification(ctx, s.bucket, s.prefix, s.suffix, []string{objectCreatedEvent})
	for {
		select {
		case <-ctx.Done():
			return nil
		case info, ok := <-notificationCh:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream closed")
			}
			if info.Err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream error: %w", info.Err)
			}
			for _, record := range info.Records {
				objectKey, err := decodeObjectKey(record.S3.Object.Key)
				if err != nil {
					continue
				}
				claimID, filename, err := parseObjectKey(objectKey)
				if err != nil {
					continue
				}
				event := ResponseUploadEvent{
					ClaimID:   claimID,
					Filename:  filename,
					ObjectKey: objectKey,
					EventName: record.EventName,
				}
				if err := handler(ctx, event); err != nil {
					return err
				}
			}
		}
	}
}

func decodeObjectKey(encoded string) (string, error) {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", err
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", fmt.Errorf("object key is empty")
	}
	return decoded, nil
}

// parseObjectKey accepts responses/<claim_id>/<filename>; the leading
// responses/ segment is optional so direct uploads keyed by claim id
// still route.
func parseObjectKey(objectKey string) (string, string, error) {
	cleaned := strings.Trim(strings.ReplaceAll(objectKey, "\\", "/"), "/")
	cleaned = strings.TrimPrefix(cleaned, "responses/")
	parts := strings.SplitN(cleaned, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("object key %q does not match claim_id/filename", objectKey)
	}
	claimID := strings.TrimSpace(parts[0])
	filename := strings.TrimSpace(parts[1])
	if claimID == "" || filename == "" {
		return "", "", fmt.Errorf("object key %q missing claim id or filename", objectKey)
	}
	return claimID, filename, nil
}
