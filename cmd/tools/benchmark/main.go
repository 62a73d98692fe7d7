package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	BaseURL       string
	NumUsers      int
	Duration      time.Duration
	WriteWorkers  int
	QueryWorkers  int
	BatchSize     int
	QueryInterval time.Duration
	DataTimeRange time.Duration // How far back in time to spread readings
	OutputDir     string
	HTTPClient    *http.Client // Shared HTTP client for connection pooling
}

// Metrics holds benchmark metrics
type Metrics struct {
	WriteLatencies  []float64
	QueryLatencies  []float64
	WriteErrors     int64
	QueryErrors     int64
	WriteSuccess    int64
	QuerySuccess    int64
	FirstWriteError string
	FirstQueryError string
	mu              sync.Mutex
}

// Result represents benchmark results
type Result struct {
	Operation  string
	TotalOps   int64
	SuccessOps int64
	ErrorOps   int64
	Duration   time.Duration
	Throughput float64 // ops/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	ErrorMsg   string  // First error message
}

func main() {
	config := BenchmarkConfig{}
	flag.StringVar(&config.BaseURL, "url", "http://127.0.0.1:8080", "Base URL of the HealthTrack API")
	flag.IntVar(&config.NumUsers, "users", 50, "Number of simulated users")
	flag.DurationVar(&config.Duration, "duration", 60*time.Second, "Benchmark duration")
	flag.IntVar(&config.WriteWorkers, "write-workers", 10, "Number of concurrent ingest workers")
	flag.IntVar(&config.QueryWorkers, "query-workers", 5, "Number of concurrent analysis workers")
	flag.IntVar(&config.BatchSize, "batch-size", 20, "Readings per ingest request (1 uses the single reading API)")
	flag.DurationVar(&config.QueryInterval, "query-interval", 10*time.Millisecond, "Interval between queries per worker")
	flag.DurationVar(&config.DataTimeRange, "time-range", 30*24*time.Hour, "Time range to spread readings across")
	flag.StringVar(&config.OutputDir, "output-dir", "benchmark_results", "Directory for the results file (empty disables)")
	flag.Parse()

	if config.NumUsers < 1 || config.BatchSize < 1 {
		fmt.Fprintln(os.Stderr, "users and batch-size must be positive")
		os.Exit(1)
	}

	config.HTTPClient = &http.Client{
		Timeout: utils.DefaultRequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	fmt.Printf("=== HealthTrack Benchmark Tool ===\n")
	writeConfig(os.Stdout, config)
	fmt.Printf("\n")

	metrics := runBenchmark(config)

	writeResult := calculateResult("Ingest", metrics.WriteLatencies, metrics.WriteSuccess, metrics.WriteErrors, config.Duration, metrics.FirstWriteError)
	queryResult := calculateResult("Analysis", metrics.QueryLatencies, metrics.QuerySuccess, metrics.QueryErrors, config.Duration, metrics.FirstQueryError)

	fmt.Printf("\n=== Benchmark Results ===\n\n")
	writeResultTo(os.Stdout, writeResult)
	fmt.Println()
	writeResultTo(os.Stdout, queryResult)

	if config.OutputDir != "" {
		saveResults(config, writeResult, queryResult)
	}
}

func runBenchmark(config BenchmarkConfig) *Metrics {
	metrics := &Metrics{
		WriteLatencies: make([]float64, 0, 10000),
		QueryLatencies: make([]float64, 0, 1000),
	}

	var wg sync.WaitGroup
	stopCh := make(chan struct{})
	startTime := time.Now()

	for i := 0; i < config.WriteWorkers; i++ {
		wg.Add(1)
		go writeWorker(i, config, metrics, stopCh, &wg)
	}

	for i := 0; i < config.QueryWorkers; i++ {
		wg.Add(1)
		go queryWorker(i, config, metrics, stopCh, &wg)
	}

	go progressReporter(metrics, config.Duration, startTime)

	time.Sleep(config.Duration)
	close(stopCh)
	wg.Wait()

	return metrics
}

func writeWorker(id int, config BenchmarkConfig, metrics *Metrics, stopCh chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	gen := newGenerator(int64(id), time.Now().Add(-config.DataTimeRange), config.DataTimeRange)
	user := id % config.NumUsers

	for {
		select {
		case <-stopCh:
			return
		default:
			batch := gen.Batch(config.BatchSize)

			var target string
			var payload interface{}
			if config.BatchSize > 1 {
				target = fmt.Sprintf("%s/v1/users/%s/readings/batch", config.BaseURL, userID(user))
				payload = models.BatchReadingRequest{Readings: batch}
			} else {
				target = fmt.Sprintf("%s/v1/users/%s/readings", config.BaseURL, userID(user))
				payload = batch[0]
			}
			user = (user + config.WriteWorkers) % config.NumUsers

			latency, err := timedRequest(config, http.MethodPost, target, payload)
			metrics.record(true, latency, err, int64(config.BatchSize))
		}
	}
}

func queryWorker(id int, config BenchmarkConfig, metrics *Metrics, stopCh chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(config.QueryInterval)
	defer ticker.Stop()

	n := id
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			target := analysisURL(config.BaseURL, userID(n%config.NumUsers), n)
			n++

			latency, err := timedRequest(config, http.MethodGet, target, nil)
			metrics.record(false, latency, err, 1)
		}
	}
}

// analysisURL cycles through the analysis endpoints
func analysisURL(base, user string, n int) string {
	metric := metricTypes[n%len(metricTypes)]
	switch n % 4 {
	case 0:
		return fmt.Sprintf("%s/v1/users/%s/trend?metric_type=%s", base, user, metric)
	case 1:
		return fmt.Sprintf("%s/v1/users/%s/anomalies?metric_type=%s", base, user, metric)
	case 2:
		return fmt.Sprintf("%s/v1/users/%s/time-of-day?metric_type=%s&timezone=%s",
			base, user, metric, url.QueryEscape("+09:00"))
	default:
		return fmt.Sprintf("%s/v1/users/%s/summary", base, user)
	}
}

func userID(n int) string {
	return fmt.Sprintf("bench-user-%04d", n)
}

// record adds one request outcome; count is the number of readings or queries it carried
func (m *Metrics) record(write bool, latency float64, err error, count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if write {
		m.WriteLatencies = append(m.WriteLatencies, latency)
		if err != nil {
			atomic.AddInt64(&m.WriteErrors, count)
			if m.FirstWriteError == "" {
				m.FirstWriteError = err.Error()
			}
			return
		}
		atomic.AddInt64(&m.WriteSuccess, count)
		return
	}

	m.QueryLatencies = append(m.QueryLatencies, latency)
	if err != nil {
		atomic.AddInt64(&m.QueryErrors, count)
		if m.FirstQueryError == "" {
			m.FirstQueryError = err.Error()
		}
		return
	}
	atomic.AddInt64(&m.QuerySuccess, count)
}

func progressReporter(metrics *Metrics, duration time.Duration, startTime time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		<-ticker.C
		elapsed := time.Since(startTime)
		if elapsed >= duration {
			return
		}

		writes := atomic.LoadInt64(&metrics.WriteSuccess)
		queries := atomic.LoadInt64(&metrics.QuerySuccess)
		writeErrors := atomic.LoadInt64(&metrics.WriteErrors)
		queryErrors := atomic.LoadInt64(&metrics.QueryErrors)

		remaining := duration - elapsed
		fmt.Printf("[%s remaining] Readings: %d (%.0f/s, %d errors) | Analyses: %d (%.0f/s, %d errors)\n",
			remaining.Round(time.Second), writes, float64(writes)/elapsed.Seconds(), writeErrors,
			queries, float64(queries)/elapsed.Seconds(), queryErrors)
	}
}

// timedRequest returns the latency in milliseconds
func timedRequest(config BenchmarkConfig, method, target string, data interface{}) (float64, error) {
	start := time.Now()
	err := makeRequest(config, method, target, data)
	return time.Since(start).Seconds() * 1000, err
}

func makeRequest(config BenchmarkConfig, method, target string, data interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "keep-alive")

	resp, err := config.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain body to reuse connection
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d %s", resp.StatusCode, req.URL.Path)
	}

	return nil
}

func calculateResult(operation string, latencies []float64, success, errors int64, duration time.Duration, errorMsg string) Result {
	if len(latencies) == 0 {
		return Result{
			Operation: operation,
			TotalOps:  success + errors,
			ErrorMsg:  errorMsg,
		}
	}

	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)

	result := Result{
		Operation:  operation,
		TotalOps:   success + errors,
		SuccessOps: success,
		ErrorOps:   errors,
		Duration:   duration,
		MinLatency: sorted[0],
		MaxLatency: sorted[len(sorted)-1],
		P50Latency: percentile(sorted, 50),
		P95Latency: percentile(sorted, 95),
		P99Latency: percentile(sorted, 99),
		ErrorMsg:   errorMsg,
	}
	if duration > 0 {
		result.Throughput = float64(success) / duration.Seconds()
	}

	var sum float64
	for _, lat := range sorted {
		sum += lat
	}
	result.AvgLatency = sum / float64(len(sorted))

	return result
}

// percentile uses the nearest-rank method on an ascending slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted))*p/100.0)) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func writeConfig(w io.Writer, config BenchmarkConfig) {
	_, _ = fmt.Fprintf(w, "Configuration:\n")
	_, _ = fmt.Fprintf(w, "  URL: %s\n", config.BaseURL)
	_, _ = fmt.Fprintf(w, "  Users: %d\n", config.NumUsers)
	_, _ = fmt.Fprintf(w, "  Duration: %s\n", config.Duration)
	_, _ = fmt.Fprintf(w, "  Write Workers: %d\n", config.WriteWorkers)
	_, _ = fmt.Fprintf(w, "  Query Workers: %d\n", config.QueryWorkers)
	_, _ = fmt.Fprintf(w, "  Batch Size: %d\n", config.BatchSize)
	_, _ = fmt.Fprintf(w, "  Query Interval: %s\n", config.QueryInterval)
	_, _ = fmt.Fprintf(w, "  Data Time Range: %s\n", config.DataTimeRange)
}

func writeResultTo(w io.Writer, r Result) {
	_, _ = fmt.Fprintf(w, "=== %s Operations ===\n", r.Operation)
	_, _ = fmt.Fprintf(w, "Total Operations: %d\n", r.TotalOps)
	_, _ = fmt.Fprintf(w, "Success:          %d (%.2f%%)\n", r.SuccessOps, ratio(r.SuccessOps, r.TotalOps))
	_, _ = fmt.Fprintf(w, "Errors:           %d (%.2f%%)\n", r.ErrorOps, ratio(r.ErrorOps, r.TotalOps))
	_, _ = fmt.Fprintf(w, "Duration:         %s\n", r.Duration)
	_, _ = fmt.Fprintf(w, "Throughput:       %.2f ops/sec\n", r.Throughput)
	if r.ErrorOps > 0 && len(r.ErrorMsg) > 0 {
		_, _ = fmt.Fprintf(w, "First Error:      %s\n", r.ErrorMsg)
	}
	_, _ = fmt.Fprintf(w, "\nLatency (ms):\n")
	_, _ = fmt.Fprintf(w, "  Min:  %.2f\n", r.MinLatency)
	_, _ = fmt.Fprintf(w, "  Avg:  %.2f\n", r.AvgLatency)
	_, _ = fmt.Fprintf(w, "  P50:  %.2f\n", r.P50Latency)
	_, _ = fmt.Fprintf(w, "  P95:  %.2f\n", r.P95Latency)
	_, _ = fmt.Fprintf(w, "  P99:  %.2f\n", r.P99Latency)
	_, _ = fmt.Fprintf(w, "  Max:  %.2f\n", r.MaxLatency)
}

func saveResults(config BenchmarkConfig, writeResult, queryResult Result) {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		fmt.Printf("Failed to create result directory: %v\n", err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(config.OutputDir, fmt.Sprintf("api_benchmark_%s.txt", timestamp))

	f, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Failed to create result file: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintf(f, "=== HealthTrack API Benchmark Results ===\n")
	_, _ = fmt.Fprintf(f, "Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	writeConfig(f, config)
	_, _ = fmt.Fprintf(f, "\n")
	writeResultTo(f, writeResult)
	_, _ = fmt.Fprintf(f, "\n")
	writeResultTo(f, queryResult)

	fmt.Printf("\nResults saved to: %s\n", filename)
}
