package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	before := testutil.ToFloat64(generateRequests.WithLabelValues("history", OutcomeSuccess))
	tokBefore := testutil.ToFloat64(tokens.WithLabelValues("prompt"))

	SetBuildInfo("1.0.0", "abc", "2024-01-01")
	RecordGenerate("history", OutcomeSuccess)
	RecordTokens("prompt", 12)
	RecordTokens("prompt", 0)
	RecordUpstreamStatus("200")
	ObserveUpstream(OutcomeSuccess, 150*time.Millisecond)
	RecordTranscriptAppend("memory")

	if v := testutil.ToFloat64(generateRequests.WithLabelValues("history", OutcomeSuccess)); v != before+1 {
		t.Fatalf("generate requests: %v", v)
	}
	if v := testutil.ToFloat64(tokens.WithLabelValues("prompt")); v != tokBefore+12 {
		t.Fatalf("tokens: %v", v)
	}
	if v := testutil.ToFloat64(buildInfo.WithLabelValues("2024-01-01", "abc", "1.0.0")); v != 1 {
		t.Fatalf("build info: %v", v)
	}
	if n := testutil.CollectAndCount(upstreamDuration); n < 1 {
		t.Fatalf("expected histogram series, got %d", n)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{"genrelay_build_info", "genrelay_generate_requests_total", "genrelay_upstream_responses_total", "genrelay_transcript_records_total"} {
		if !names[want] {
			t.Fatalf("missing metric family %s in %v", want, names)
		}
	}
}
