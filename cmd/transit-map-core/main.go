package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	lib "github.com/theoremus-urban-solutions/transit-map-core"
	"github.com/theoremus-urban-solutions/transit-map-core/config"
	"github.com/theoremus-urban-solutions/transit-map-core/metrics"
)

func main() {
	mode := flag.String("mode", "oneshot", "oneshot|watch")
	configPath := flag.String("config", "", "path to config.yml (default: config.yml)")
	tripIDs := flag.String("trips", "", "comma-separated trip ids to fetch")
	interval := flag.Duration("interval", 30*time.Second, "watch mode refresh interval")
	flag.Parse()

	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	lib.InitLogging()

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG")
	}
	cfg, err := config.LoadAppConfig(path)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ids := splitTrips(*tripIDs)
	if len(ids) == 0 {
		log.Fatal("no trip ids given; use -trips=id1,id2")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	core := lib.NewCore(cfg)

	var metricsSrv *http.Server
	if cfg.Server.MetricsPort > 0 {
		col := metrics.NewCollector()
		wireMetrics(core, col)
		metricsSrv = col.Serve(fmt.Sprintf(":%d", cfg.Server.MetricsPort))
	}

	switch *mode {
	case "oneshot":
		for _, id := range ids {
			details, err := core.TripCache.GetOrFetch(ctx, id)
			if err != nil {
				log.Printf("trip %s: %v", id, err)
				continue
			}
			buf, _ := json.MarshalIndent(details, "", "  ")
			fmt.Println(string(buf))
		}
	case "watch":
		watch(ctx, core, ids, *interval)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}

	if metricsSrv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancelShutdown()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

// watch keeps the cache warm for the given trips and logs cache stats until
// interrupted.
func watch(ctx context.Context, core *lib.Core, ids []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	core.TripCache.PrefetchMany(ctx, ids)
	for {
		select {
		case <-ctx.Done():
			log.Printf("shutdown signal received")
			return
		case <-ticker.C:
		}
		core.TripCache.PrefetchMany(ctx, ids)
		s := core.TripCache.Stats()
		log.Printf("cache: %d entries, %d hits, %d misses, hit rate %.2f",
			s.Size, s.Hits, s.Misses, s.HitRate)
	}
}

func splitTrips(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
