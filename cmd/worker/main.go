package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"claimflow/internal/config"
	"claimflow/internal/openai"
	"claimflow/internal/storage"
	appTemporal "claimflow/internal/temporal"
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

	blob, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
	if err != nil {
		log.Fatalf("connect minio: %v", err)
	}

	llm := openai.NewHTTPClient(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	drafter := openai.NewDrafter(llm, cfg.OpenAIModel)

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("connect temporal: %v", err)
	}
	defer temporalClient.Close()

	activities := &appTemporal.Activities{
		Store:   store,
		Blob:    blob,
		Drafter: drafter,
	}

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(appTemporal.CarrierResponseWorkflow, workflow.RegisterOptions{Name: appTemporal.CarrierResponseWorkflowName})
	w.RegisterWorkflowWithOptions(appTemporal.ClaimSubmissionWorkflow, workflow.RegisterOptions{Name: appTemporal.ClaimSubmissionWorkflowName})
	w.RegisterActivity(activities.StoreCarrierResponseActivity)
	w.RegisterActivity(activities.ClassifyResponseActivity)
	w.RegisterActivity(activities.CompareEstimatesActivity)
	w.RegisterActivity(activities.DetectRegressionActivity)
	w.RegisterActivity(activities.ResolveStateActivity)
	w.RegisterActivity(activities.SynthesizeIntelligenceActivity)
	w.RegisterActivity(activities.EnqueueActionActivity)
	w.RegisterActivity(activities.ResolveActionActivity)
	w.RegisterActivity(activities.LoadSnapshotActivity)
	w.RegisterActivity(activities.EvaluateReadinessActivity)
	w.RegisterActivity(activities.DraftNarrativeActivity)
	w.RegisterActivity(activities.DispatchSubmissionActivity)

	log.Printf("worker running on task queue %s", cfg.TemporalTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker stopped with error: %v", err)
	}
}
