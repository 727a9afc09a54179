package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"Vibe/config"
	"Vibe/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the MinIO media bucket",
	Long:  `List uploaded media objects in the MinIO bucket, optionally filtered by prefix, or print bucket totals.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := storage.NewMinioUploader(cfg)
		if err != nil {
			log.Fatalf("cannot connect to MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		objects, stats, err := client.ListObjects(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("list objects: %v", err)
		}

		if !minioStats {
			for _, o := range objects {
				fmt.Printf("%-60s %10s  %s\n", o.Key, storage.FormatSize(o.Size), o.LastModified.Format(time.RFC3339))
			}
		}
		fmt.Printf("\n%d objects, %s", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf(", last modified %s", stats.LastModified.Format(time.RFC3339))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "only list keys with this prefix (audio/, images/)")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "print bucket totals only")

	minioCmd.Example = `  # list everything
  vibe minio

  # list uploaded audio
  vibe minio -p "audio/"

  # totals only
  vibe minio -s`
}
