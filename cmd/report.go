package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cdc-reconciler/core/config"
	"cdc-reconciler/core/logger"
	"cdc-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportTable string
	reportRunID string
)

// reportCmd retrieves archived run reports from object storage.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List or fetch archived run reports",
	Long: `Without --run-id, lists the archived reports for a table. With
--run-id, prints that report's JSON to stdout.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportTable, "table", "", "Table whose reports to inspect (required)")
	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "Run whose report to print")
	_ = reportCmd.MarkFlagRequired("table")
	RootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	if reportRunID != "" {
		objectName := fmt.Sprintf("reports/%s/%s.json", reportTable, reportRunID)
		obj, err := client.GetObject(ctx, cfg.Storage.Bucket, objectName, minio.GetObjectOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch report %s: %w", objectName, err)
		}
		defer obj.Close()

		data, err := io.ReadAll(obj)
		if err != nil {
			return fmt.Errorf("failed to read report %s: %w", objectName, err)
		}
		fmt.Println(string(data))
		return nil
	}

	prefix := fmt.Sprintf("reports/%s/", reportTable)
	found := 0
	for info := range client.ListObjects(ctx, cfg.Storage.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return fmt.Errorf("failed to list reports: %w", info.Err)
		}
		runID := strings.TrimSuffix(strings.TrimPrefix(info.Key, prefix), ".json")
		l.Info("Archived report",
			zap.String("run_id", runID),
			zap.Time("archived_at", info.LastModified),
			zap.Int64("size", info.Size),
		)
		found++
	}
	if found == 0 {
		l.Info("No archived reports", zap.String("table", reportTable))
	}
	return nil
}
