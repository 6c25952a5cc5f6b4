package metrics

import (
	"strings"
	"testing"
)

func TestExport(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RecordRequest("POST", "/v1/parse", 200, 120)
	RecordRequest("POST", "/v1/parse", 200, 80)
	RecordRequest("GET", "/healthz", 200, 1)
	RecordParse("default", "readability", "", 0.95)
	RecordParse("default", "webview", "TIMEOUT", 0.3)
	RecordParse("youtube", "oembed", "", 0.8)
	RecordFetchFailure("TIMEOUT")

	out := Export()

	want := []string{
		`yomu_http_requests_total{method="POST",path="/v1/parse",status="200"} 2`,
		`yomu_http_request_duration_ms_sum{method="POST",path="/v1/parse"} 200`,
		`yomu_http_request_duration_ms_count{method="POST",path="/v1/parse"} 2`,
		`yomu_parses_total{strategy="default",fetch_method="readability",error=""} 1`,
		`yomu_parses_total{strategy="default",fetch_method="webview",error="TIMEOUT"} 1`,
		`yomu_parse_confidence_count{strategy="default"} 2`,
		`yomu_parse_confidence_count{strategy="youtube"} 1`,
		`yomu_fetch_failures_total{code="TIMEOUT"} 1`,
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("export missing %q\n%s", w, out)
		}
	}
}

func TestExportStableOrder(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RecordParse("zeta", "api", "", 0.9)
	RecordParse("alpha", "api", "", 0.9)

	out := Export()
	if strings.Index(out, `strategy="alpha"`) > strings.Index(out, `strategy="zeta"`) {
		t.Fatalf("strategies not sorted:\n%s", out)
	}
}
