package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanhabib/elmify-backend-sub000/cache"
	"github.com/alanhabib/elmify-backend-sub000/config"
)

var invalidatePlaylist string

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis connection and manage cached manifests",
	Long:  `Verifies the manifest cache is reachable. With --invalidate, purges cached manifests for a playlist id ("*" purges everything).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.CloseRedis()
		fmt.Println("Redis connection OK")

		if invalidatePlaylist != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			store := cache.NewManifestStore(cache.RedisClient)
			deleted, err := store.DeleteByPlaylist(ctx, invalidatePlaylist)
			if err != nil {
				log.Fatalf("Invalidation failed: %v", err)
			}
			fmt.Printf("Invalidated %d manifest(s) for playlist %q\n", deleted, invalidatePlaylist)
		}
	},
}

func init() {
	redisCmd.Flags().StringVar(&invalidatePlaylist, "invalidate", "", `playlist id to purge from the manifest cache ("*" for all)`)
	rootCmd.AddCommand(redisCmd)
}
