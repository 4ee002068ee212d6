package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"claimflow/internal/config"
	"claimflow/internal/events"
	"claimflow/internal/storage"
	appTemporal "claimflow/internal/temporal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("connect minio: %v", err)
	}

	blob, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
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

	source := events.NewMinioResponseEventSource(minioClient, cfg.MinioBucket, "responses/", "")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("event-handler listening for object-created events on bucket=%s", cfg.MinioBucket)
	err = source.Run(ctx, func(parent context.Context, event events.ResponseUploadEvent) error {
		// Deterministic response id keyed by object: a replayed bucket
		// notification maps to the same workflow id and dedupes below.
		responseID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(event.ObjectKey)).String()
		workflowID := fmt.Sprintf("%s-response-%s-%s", cfg.WorkflowIDPrefix, event.ClaimID, responseID)
		execCtx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()

		content, err := blob.GetObject(execCtx, event.ObjectKey)
		if err != nil {
			return fmt.Errorf("fetch object %s: %w", event.ObjectKey, err)
		}

		_, startErr := temporalClient.ExecuteWorkflow(execCtx, client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: cfg.TemporalTaskQueue,
		}, appTemporal.CarrierResponseWorkflowName, appTemporal.CarrierResponseWorkflowInput{
			ClaimID:    event.ClaimID,
			ResponseID: responseID,
			Filename:   event.Filename,
			Content:    content,
			ReceivedAt: time.Now().UTC(),
		})
		if startErr != nil {
			var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
			if errors.As(startErr, &alreadyStarted) {
				log.Printf("workflow already started for object=%s workflow_id=%s", event.ObjectKey, workflowID)
				return nil
			}
			return fmt.Errorf("start workflow for object %s: %w", event.ObjectKey, startErr)
		}

		log.Printf("started workflow workflow_id=%s object=%s", workflowID, event.ObjectKey)
		return nil
	})
	if err != nil {
		log.Fatalf("event-handler stopped with error: %v", err)
	}
}
