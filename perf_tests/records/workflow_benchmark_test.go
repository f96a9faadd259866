package records_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"
)

// Configuration from environment
var (
	qmsURL      = getEnv("QMS_URL", "http://localhost:8080")
	actorID     = getEnv("PERF_ACTOR_ID", "perf-runner")
	numCalls    = getEnvInt("PERF_NUM_CALLS", 10000)
	concurrency = getEnvInt("PERF_CONCURRENCY", 10)
)

// Helper to create an authenticated request
func makeRequest(method, url string, body []byte) (*http.Response, error) {
	client := &http.Client{}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-Actor-ID", actorID)
	req.Header.Set("X-Internal-Service", os.Getenv("INTERNAL_SERVICE_SECRET"))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return client.Do(req)
}

// createTestNCR creates a record for the benchmark to read and returns its ID
func createTestNCR(tb testing.TB) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"title":      fmt.Sprintf("perf-ncr-%d", time.Now().Unix()),
		"type":       "material",
		"severity":   "minor",
		"reportedBy": actorID,
	})

	resp, err := makeRequest("POST", qmsURL+"/api/v1/records/ncr", payload)
	if err != nil {
		tb.Fatalf("Failed to create record: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		tb.Fatalf("Unexpected create status: %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		tb.Fatalf("Failed to decode create response: %v", err)
	}
	return created.ID
}

// BenchmarkFetchRecord measures record fetch performance
// Exercises the full read path: handler → service → cache/store
//
// Usage:
//
//	go test -bench=BenchmarkFetchRecord -benchtime=10000x ./perf_tests/records
//
// Metrics: ops/sec, latency, throughput
func BenchmarkFetchRecord(b *testing.B) {
	// Skip if the service is not running
	resp, err := http.Get(qmsURL + "/health")
	if err != nil {
		b.Skip("QMS service not running")
	}
	resp.Body.Close()

	recordID := createTestNCR(b)

	b.Logf("Benchmarking record fetch: %d iterations", b.N)
	b.Logf("  Record: %s", recordID)

	var totalBytes int64

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		url := fmt.Sprintf("%s/api/v1/records/ncr/%s", qmsURL, recordID)
		resp, err := makeRequest("GET", url, nil)
		if err != nil {
			b.Fatalf("Request failed: %v", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			b.Fatalf("Failed to read response: %v", err)
		}

		totalBytes += int64(len(body))

		if resp.StatusCode != 200 {
			b.Fatalf("Unexpected status: %d", resp.StatusCode)
		}
	}

	b.StopTimer()

	elapsed := b.Elapsed()
	opsPerSec := float64(b.N) / elapsed.Seconds()
	throughputMBps := float64(totalBytes) / elapsed.Seconds() / 1024 / 1024

	b.ReportMetric(opsPerSec, "ops/sec")
	b.ReportMetric(throughputMBps, "MB/s")
	b.ReportMetric(float64(elapsed.Nanoseconds()/int64(b.N))/1e6, "ms/op")
}

// BenchmarkCreateRecord measures the full write path: validation, number
// generation, store write, audit entry, cache fill, event publish
func BenchmarkCreateRecord(b *testing.B) {
	resp, err := http.Get(qmsURL + "/health")
	if err != nil {
		b.Skip("QMS service not running")
	}
	resp.Body.Close()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		payload, _ := json.Marshal(map[string]interface{}{
			"title":      fmt.Sprintf("perf-ncr-%d-%d", time.Now().Unix(), i),
			"type":       "material",
			"severity":   "minor",
			"reportedBy": actorID,
		})

		resp, err := makeRequest("POST", qmsURL+"/api/v1/records/ncr", payload)
		if err != nil {
			b.Fatalf("Request failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			b.Fatalf("Unexpected status: %d", resp.StatusCode)
		}
	}

	b.StopTimer()

	elapsed := b.Elapsed()
	b.ReportMetric(float64(b.N)/elapsed.Seconds(), "ops/sec")
}

type workerStats struct {
	workerID     int
	totalCalls   int
	totalBytes   int64
	totalLatency time.Duration
	minLatency   time.Duration
	maxLatency   time.Duration
	errors       int
	duration     time.Duration
}

// TestFetchRecordsConcurrent measures read performance under load with
// multiple concurrent clients
func TestFetchRecordsConcurrent(t *testing.T) {
	resp, err := http.Get(qmsURL + "/health")
	if err != nil {
		t.Skip("QMS service not running")
	}
	resp.Body.Close()

	recordID := createTestNCR(t)

	t.Logf("Concurrent fetch test:")
	t.Logf("  Total calls: %d", numCalls)
	t.Logf("  Concurrency: %d", concurrency)
	t.Logf("  Record: %s", recordID)

	start := time.Now()

	callsPerWorker := numCalls / concurrency
	doneChan := make(chan workerStats, concurrency)

	for w := 0; w < concurrency; w++ {
		go func(workerID int) {
			stats := workerStats{workerID: workerID}
			workerStart := time.Now()

			for i := 0; i < callsPerWorker; i++ {
				reqStart := time.Now()

				url := fmt.Sprintf("%s/api/v1/records/ncr/%s", qmsURL, recordID)
				resp, err := makeRequest("GET", url, nil)
				if err != nil {
					stats.errors++
					continue
				}

				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()

				reqDuration := time.Since(reqStart)

				stats.totalCalls++
				stats.totalBytes += int64(len(body))
				stats.totalLatency += reqDuration

				if reqDuration < stats.minLatency || stats.minLatency == 0 {
					stats.minLatency = reqDuration
				}
				if reqDuration > stats.maxLatency {
					stats.maxLatency = reqDuration
				}
			}

			stats.duration = time.Since(workerStart)
			doneChan <- stats
		}(w)
	}

	var totalStats workerStats
	for i := 0; i < concurrency; i++ {
		stats := <-doneChan
		totalStats.totalCalls += stats.totalCalls
		totalStats.totalBytes += stats.totalBytes
		totalStats.totalLatency += stats.totalLatency
		totalStats.errors += stats.errors

		if stats.minLatency < totalStats.minLatency || totalStats.minLatency == 0 {
			totalStats.minLatency = stats.minLatency
		}
		if stats.maxLatency > totalStats.maxLatency {
			totalStats.maxLatency = stats.maxLatency
		}
	}

	elapsed := time.Since(start)
	opsPerSec := float64(totalStats.totalCalls) / elapsed.Seconds()

	t.Logf("Results:")
	t.Logf("  Completed: %d calls in %v", totalStats.totalCalls, elapsed)
	t.Logf("  Throughput: %.1f ops/sec", opsPerSec)
	t.Logf("  Errors: %d", totalStats.errors)
	t.Logf("  Latency min/max: %v / %v", totalStats.minLatency, totalStats.maxLatency)
	if totalStats.totalCalls > 0 {
		t.Logf("  Latency avg: %v", totalStats.totalLatency/time.Duration(totalStats.totalCalls))
	}

	if totalStats.errors > totalStats.totalCalls/10 {
		t.Errorf("Error rate too high: %d errors out of %d calls", totalStats.errors, totalStats.totalCalls)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
