package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and parses.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	parsesTotal         = make(map[parseKey]int64)
	parseConfSum        = make(map[string]float64)
	parseConfCount      = make(map[string]int64)
	fetchFailuresByCode = make(map[string]int64)
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type parseKey struct {
	Strategy    string
	FetchMethod string
	ErrorCode   string
}

// RecordRequest increments the request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordParse records one parse outcome: which strategy answered, how the
// content was obtained, the error code if any, and the reported
// confidence.
func RecordParse(strategy, fetchMethod, errorCode string, confidence float64) {
	mu.Lock()
	defer mu.Unlock()

	key := parseKey{Strategy: strategy, FetchMethod: fetchMethod, ErrorCode: errorCode}
	parsesTotal[key]++

	parseConfSum[strategy] += confidence
	parseConfCount[strategy]++
}

// RecordFetchFailure counts classified outbound fetch failures.
func RecordFetchFailure(code string) {
	mu.Lock()
	defer mu.Unlock()
	fetchFailuresByCode[code]++
}

// Reset clears all counters. Test helper only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	requestsTotal = make(map[reqKey]int64)
	latencyMsSum = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)
	parsesTotal = make(map[parseKey]int64)
	parseConfSum = make(map[string]float64)
	parseConfCount = make(map[string]int64)
	fetchFailuresByCode = make(map[string]int64)
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP yomu_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE yomu_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "yomu_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP yomu_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE yomu_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP yomu_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE yomu_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "yomu_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "yomu_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	// Parse metrics
	b.WriteString("# HELP yomu_parses_total Total parses by strategy, fetch method and error code\n")
	b.WriteString("# TYPE yomu_parses_total counter\n")

	var parseKeys []parseKey
	for k := range parsesTotal {
		parseKeys = append(parseKeys, k)
	}
	sort.Slice(parseKeys, func(i, j int) bool {
		if parseKeys[i].Strategy != parseKeys[j].Strategy {
			return parseKeys[i].Strategy < parseKeys[j].Strategy
		}
		if parseKeys[i].FetchMethod != parseKeys[j].FetchMethod {
			return parseKeys[i].FetchMethod < parseKeys[j].FetchMethod
		}
		return parseKeys[i].ErrorCode < parseKeys[j].ErrorCode
	})

	for _, k := range parseKeys {
		v := parsesTotal[k]
		fmt.Fprintf(&b, "yomu_parses_total{strategy=\"%s\",fetch_method=\"%s\",error=\"%s\"} %d\n",
			k.Strategy, k.FetchMethod, k.ErrorCode, v)
	}

	b.WriteString("# HELP yomu_parse_confidence_sum Sum of reported confidences by strategy\n")
	b.WriteString("# TYPE yomu_parse_confidence_sum counter\n")
	b.WriteString("# HELP yomu_parse_confidence_count Parse count for confidence metric\n")
	b.WriteString("# TYPE yomu_parse_confidence_count counter\n")

	var strategies []string
	for s := range parseConfCount {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)
	for _, s := range strategies {
		fmt.Fprintf(&b, "yomu_parse_confidence_sum{strategy=\"%s\"} %g\n", s, parseConfSum[s])
		fmt.Fprintf(&b, "yomu_parse_confidence_count{strategy=\"%s\"} %d\n", s, parseConfCount[s])
	}

	b.WriteString("# HELP yomu_fetch_failures_total Classified outbound fetch failures\n")
	b.WriteString("# TYPE yomu_fetch_failures_total counter\n")

	var codes []string
	for c := range fetchFailuresByCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	for _, c := range codes {
		fmt.Fprintf(&b, "yomu_fetch_failures_total{code=\"%s\"} %d\n", c, fetchFailuresByCode[c])
	}

	return b.String()
}
