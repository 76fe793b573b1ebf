package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanhabib/elmify-backend-sub000/config"
	"github.com/alanhabib/elmify-backend-sub000/storage"
)

var (
	minioHeadKey string
	minioSignKey string
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Check the object store connection",
	Long:  `Verifies the audio object store is reachable. With --head or --sign, inspects or presigns a specific object key.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection OK")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if minioHeadKey != "" {
			info, err := store.HeadObject(ctx, minioHeadKey)
			if err != nil {
				log.Fatalf("Head failed: %v", err)
			}
			fmt.Printf("%s: %d bytes, %s\n", info.Key, info.Size, info.ContentType)
		}

		if minioSignKey != "" {
			signed, err := store.SignURL(ctx, minioSignKey, cfg.SignedURLTTL)
			if err != nil {
				log.Fatalf("Sign failed: %v", err)
			}
			fmt.Printf("%s\n  expires %s\n", signed.URL, signed.ExpiresAt.Format(time.RFC3339))
		}
	},
}

func init() {
	minioCmd.Flags().StringVar(&minioHeadKey, "head", "", "object key to stat")
	minioCmd.Flags().StringVar(&minioSignKey, "sign", "", "object key to presign")
	rootCmd.AddCommand(minioCmd)
}
