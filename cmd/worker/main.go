package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classlogger/internal/attendance"
	"classlogger/internal/cloudinary"
	"classlogger/internal/config"
	"classlogger/internal/docstore"
	"classlogger/internal/queue"
	"classlogger/internal/store"
)

// Worker consumes selfie-upload jobs, pushes the inline selfie payload to
// the CDN and patches the attendance record with the resulting URL.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		log.Fatal("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET); nothing to do")
	}
	cdn := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)

	db, err := docstore.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classlogger:selfies")
	}

	records := attendance.NewRepository(db)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for selfie uploads...")
	for msg := range messages {
		if msg.Type != queue.TypeSelfieUpload {
			continue
		}

		id := string(msg.Body)
		rec, err := records.Get(ctx, id)
		if err != nil {
			log.Printf("fetch record %s failed: %v", id, err)
			continue
		}
		if rec.Selfie == "" {
			log.Printf("record %s has no inline selfie, skipping", id)
			continue
		}

		result, err := cdn.UploadBase64(rec.Selfie)
		if err != nil {
			log.Printf("upload failed for %s: %v", id, err)
			continue
		}

		// Swap the inline payload for the CDN URL.
		err = records.Patch(ctx, id, map[string]any{
			"selfieUrl": result.SecureURL,
			"selfie":    "",
		})
		if err != nil {
			log.Printf("patch record %s failed: %v", id, err)
			continue
		}
		log.Printf("record %s selfie offloaded (%d bytes)", id, result.Bytes)
	}

	log.Println("worker stopped")
}
