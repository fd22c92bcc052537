package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
)

const objectCreatedEvent = "s3:ObjectCreated:*"

// DocumentEvent is one required-document submission noticed in the vault.
// The engine never reads the object itself; vault keys are laid out
// clearance_id/document_type/filename.
type DocumentEvent struct {
	ClearanceID  string
	DocumentType string
	Filename     string
	ObjectKey    string
	EventName    string
}

type DocumentEventSource interface {
	Run(ctx context.Context, handler func(context.Context, DocumentEvent) error) error
}

type MinioDocumentEventSource struct {
	client *minio.Client
	bucket string
	prefix string
	suffix string
}

func NewMinioDocumentEventSource(client *minio.Client, bucket string, prefix string, suffix string) *MinioDocumentEventSource {
	return &MinioDocumentEventSource{
		client: client,
		bucket: bucket,
		prefix: prefix,
		suffix: suffix,
	}
}

func (s *MinioDocumentEventSource) Run(ctx context.Context, handler func(context.Context, DocumentEvent) error) error {
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
				clearanceID, documentType, filename, err := parseObjectKey(objectKey)
				if err != nil {
					continue
				}
				event := DocumentEvent{
					ClearanceID:  clearanceID,
					DocumentType: documentType,
					Filename:     filename,
					ObjectKey:    objectKey,
					EventName:    record.EventName,
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

func parseObjectKey(objectKey string) (string, string, string, error) {
	cleaned := strings.Trim(strings.ReplaceAll(objectKey, "\\", "/"), "/")
	parts := strings.SplitN(cleaned, "/", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("object key %q does not match clearance_id/document_type/filename", objectKey)
	}
	clearanceID := strings.TrimSpace(parts[0])
	documentType := strings.ToLower(strings.TrimSpace(parts[1]))
	filename := strings.TrimSpace(parts[2])
	if clearanceID == "" || documentType == "" || filename == "" {
		return "", "", "", fmt.Errorf("object key %q missing clearance id, document type, or filename", objectKey)
	}
	return clearanceID, documentType, filename, nil
}
