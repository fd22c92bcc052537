package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.temporal.io/sdk/client"

	"clearance-engine/internal/clearance"
	"clearance-engine/internal/config"
	"clearance-engine/internal/events"
	"clearance-engine/internal/storage"
	appTemporal "clearance-engine/internal/temporal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := storage.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer store.Close()

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("connect minio: %v", err)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("connect temporal: %v", err)
	}
	defer temporalClient.Close()

	notifier := &appTemporal.Notifier{
		Client:           temporalClient,
		TaskQueue:        cfg.TemporalTaskQueue,
		WorkflowIDPrefix: cfg.WorkflowIDPrefix,
	}
	svc := clearance.NewService(store, notifier)

	source := events.NewMinioDocumentEventSource(minioClient, cfg.MinioBucket, cfg.MinioPrefix, "")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("event-handler listening for object-created events on bucket=%s", cfg.MinioBucket)
	err = source.Run(ctx, func(parent context.Context, event events.DocumentEvent) error {
		handleCtx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()

		// Objects for unknown or settled records are not ours to fail on;
		// the vault holds uploads from several systems.
		if err := svc.HandleVaultEvent(handleCtx, event.ClearanceID, event.DocumentType); err != nil {
			return fmt.Errorf("handle vault event for object %s: %w", event.ObjectKey, err)
		}
		log.Printf("handled vault event clearance_id=%s document_type=%s object=%s", event.ClearanceID, event.DocumentType, event.ObjectKey)
		return nil
	})
	if err != nil {
		log.Fatalf("event-handler stopped with error: %v", err)
	}
}
