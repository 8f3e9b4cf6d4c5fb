package metrics

import (
	"log/slog"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
)

type cacheCollector struct {
	cache  *cache.Cache
	logger *slog.Logger

	itemsDesc *prometheus.Desc
}

func newCacheCollector(c *cache.Cache, logger *slog.Logger) *cacheCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &cacheCollector{
		cache:  c,
		logger: logger,
		itemsDesc: prometheus.NewDesc(
			"tldw_transcript_cache_items",
			"Current number of transcripts held in the in-process cache.",
			nil,
			nil,
		),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.itemsDesc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	if c.cache == nil {
		return
	}
	m, err := prometheus.NewConstMetric(c.itemsDesc, prometheus.GaugeValue, float64(c.cache.ItemCount()))
	if err != nil {
		c.logger.Warn("prometheus cache collector failed", "err", err)
		return
	}
	ch <- m
}

var registerCacheCollectorOnce sync.Once

// RegisterCacheCollector exposes the transcript cache size as a gauge. Safe
// to call more than once.
func RegisterCacheCollector(c *cache.Cache, logger *slog.Logger) {
	registerCacheCollectorOnce.Do(func() {
		prometheus.MustRegister(newCacheCollector(c, logger))
	})
}
