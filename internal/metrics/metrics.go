package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "climatenews"

// Metrics 记录每个新闻源的抓取结果；nil 时所有方法为空操作
type Metrics struct {
	FetchesTotal      *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	ArticlesExtracted *prometheus.CounterVec
}

// New 在 reg 上注册指标，reg 为 nil 时使用默认 registry
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Source page fetches by outcome",
		}, []string{"source", "status"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent fetching and extracting one source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		ArticlesExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_extracted_total",
			Help:      "Articles extracted per source",
		}, []string{"source"}),
	}
}

// ObserveFetch 记录一次抓取；err 非空时 status=error
func (m *Metrics) ObserveFetch(source string, elapsed time.Duration, articles int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FetchesTotal.WithLabelValues(source, status).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.ArticlesExtracted.WithLabelValues(source).Add(float64(articles))
}
