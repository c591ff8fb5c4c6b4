package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())
	ctx := context.Background()

	rec.Publish(ctx, events.Event{Type: events.RoundGenerated})
	rec.Publish(ctx, events.Event{Type: events.ResultSubmitted, Result: swiss.ResultDraw})
	rec.Publish(ctx, events.Event{Type: events.ResultSubmitted, Result: swiss.ResultWhite})
	rec.Publish(ctx, events.Event{Type: events.ResultSubmitted, Result: swiss.ResultDraw})

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.events.WithLabelValues(string(events.RoundGenerated))))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.events.WithLabelValues(string(events.ResultSubmitted))))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.results.WithLabelValues(string(swiss.ResultDraw))))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.results.WithLabelValues(string(swiss.ResultWhite))))

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `chesseirb_match_results_total{result="draw"} 2`)
}
