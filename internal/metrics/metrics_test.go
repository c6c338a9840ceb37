package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"FetchTotal", FetchTotal},
		{"FetchDuration", FetchDuration},
		{"CollectTotal", CollectTotal},
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"PlayheadPosition", PlayheadPosition},
		{"PlayheadLoops", PlayheadLoops},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestResult(t *testing.T) {
	if got := Result(nil); got != ResultSuccess {
		t.Errorf("Result(nil) = %s", got)
	}
	if got := Result(errors.New("x")); got != ResultError {
		t.Errorf("Result(err) = %s", got)
	}
}

func TestFetchTotal_Increments(t *testing.T) {
	before := testutil.ToFloat64(FetchTotal.WithLabelValues(ResultError))
	FetchTotal.WithLabelValues(ResultError).Inc()
	after := testutil.ToFloat64(FetchTotal.WithLabelValues(ResultError))

	if after != before+1 {
		t.Errorf("FetchTotal = %v, want %v", after, before+1)
	}
}
