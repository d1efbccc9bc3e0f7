package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/upi-tracker/internal/app"
	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/export"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	var (
		bucketName string
		prefix     string
		month      string
		filePath   string
	)

	flag.StringVar(&bucketName, "bucket", cfg.GCSBucket, "GCS bucket name (or set GCS_BUCKET env)")
	flag.StringVar(&prefix, "prefix", "reports", "Object prefix inside the bucket")
	flag.StringVar(&month, "month", "", "Month to report (YYYY-MM, default: current, \"all\" for every month)")
	flag.StringVar(&filePath, "file", "", "Upload an existing PDF instead of generating one")
	flag.Parse()

	if bucketName == "" {
		log.Fatal().Msg("Usage: upload-pdf -bucket BUCKET_NAME [-month YYYY-MM | -file /path/to/report.pdf]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	uploader, err := export.NewGCSUploader(ctx, bucketName, prefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create uploader")
	}
	defer uploader.Close()

	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			log.Fatal().Err(err).Str("file", filePath).Msg("Failed to open file")
		}
		defer f.Close()

		uri, err := uploader.Upload(ctx, filepath.Base(filePath), f)
		if err != nil {
			log.Fatal().Err(err).Msg("Upload failed")
		}
		fmt.Printf("Uploaded %s to %s\n", filePath, uri)
		return
	}

	services, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer services.Close()

	switch month {
	case "all":
		month = ""
	case "":
		month = services.Ledger.CurrentMonthBucket()
	}

	now := time.Now()
	report := export.BuildReport(ctx, services.Ledger, services.Categories.Lookup(ctx), month, now)

	log.Info().
		Str("bucket", bucketName).
		Str("month", month).
		Int("transactions", report.Count).
		Msg("Uploading report to GCS")

	uri, err := export.Publish(ctx, uploader, report, export.FileName(month, now))
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s\n", uri)
}
