// Command rebuild-cache clears and rebuilds the persistent station
// cache from the source dataset, printing dataset statistics.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/oernster/trainer-sub004/internal/cache"
	"github.com/oernster/trainer-sub004/internal/config"
	"github.com/oernster/trainer-sub004/internal/stations"
)

func main() {
	log.Println("RailRouter - Station Cache Rebuild Tool")
	log.Println("=======================================")

	clearOnly := flag.Bool("clear-only", false, "remove the cache without rebuilding")
	cfgPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	stationCache := cache.NewStationCache(cfg.Data.CacheDir)

	if err := stationCache.Clear(); err != nil {
		log.Fatalf("Failed to clear cache: %v", err)
	}
	log.Println("Cache cleared")

	if *clearOnly {
		return
	}

	repo := stations.NewRepository(cfg.Data.Dir)
	if err := repo.Load(); err != nil {
		log.Fatalf("Failed to load station data: %v", err)
	}

	log.Printf("Dataset statistics:")
	log.Printf("   Lines: %d", len(repo.Lines()))
	log.Printf("   Stations: %d", repo.StationCount())
	log.Printf("   Interchanges: %d", len(repo.InterchangeStations()))

	if repo.StationCount() == 0 {
		log.Fatalf("No stations found under %s", cfg.Data.Dir)
	}

	if err := stationCache.Save(repo.AllStationNames(), cfg.Data.Dir); err != nil {
		log.Fatalf("Failed to write cache: %v", err)
	}

	if !stationCache.IsValid(cfg.Data.Dir) {
		log.Fatalf("Cache verification failed after rebuild")
	}

	log.Println("Cache rebuild complete")
}
