package advisor

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
)

func observationPayload(t *testing.T, fieldID, crop string) []byte {
	t.Helper()
	b, err := json.Marshal(model.ObservationMessage{
		FieldID:     fieldID,
		Observation: model.DefaultObservation(crop),
		Timestamp:   testNow,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestIngestScoresAndDedups(t *testing.T) {
	sink := &recordingSink{}
	svc, m := newTestService(t, constant(65), sink)
	in := newTestIngestor(svc, m)

	payload := observationPayload(t, "", "Soybean")
	for i := 0; i < 3; i++ {
		if err := in.HandlePayload("farm/observation/plot-12", payload); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	evs := sink.Events()
	if len(evs) != 1 {
		t.Fatalf("events = %d, want 1", len(evs))
	}
	if evs[0].FieldID != "plot-12" || evs[0].Source != SourceMQTT || evs[0].Tier != "moderate" {
		t.Fatalf("event = %+v", evs[0])
	}
	if got := testutil.ToFloat64(m.ingest.WithLabelValues("duplicate")); got != 2 {
		t.Fatalf("duplicates = %v", got)
	}
	if got := testutil.ToFloat64(m.ingest.WithLabelValues("scored")); got != 1 {
		t.Fatalf("scored = %v", got)
	}
}

func TestIngestPrefersPayloadFieldID(t *testing.T) {
	sink := &recordingSink{}
	svc, m := newTestService(t, constant(65), sink)
	in := newTestIngestor(svc, m)

	if err := in.HandlePayload("farm/observation/plot-12", observationPayload(t, "field-A", "Corn")); err != nil {
		t.Fatal(err)
	}
	if evs := sink.Events(); len(evs) != 1 || evs[0].FieldID != "field-A" {
		t.Fatalf("events = %+v", evs)
	}
}

func TestIngestRejects(t *testing.T) {
	sink := &recordingSink{}
	svc, m := newTestService(t, constant(65), sink)
	in := newTestIngestor(svc, m)

	if err := in.HandlePayload("farm/observation/x", []byte("{not json")); err == nil {
		t.Fatal("malformed payload accepted")
	}
	if err := in.HandlePayload("farm/observation/x", observationPayload(t, "", "Barley")); err == nil {
		t.Fatal("unknown crop accepted")
	}
	if len(sink.Events()) != 0 {
		t.Fatal("rejected messages produced events")
	}
	if testutil.ToFloat64(m.ingest.WithLabelValues("malformed")) != 1 || testutil.ToFloat64(m.ingest.WithLabelValues("rejected")) != 1 {
		t.Fatal("outcome counters not updated")
	}
}

func TestFieldFromTopic(t *testing.T) {
	cases := map[string]string{
		"farm/observation/plot-1":     "plot-1",
		"/farm/observation/plot-2/":   "plot-2",
		"farm/observation/plot-3/raw": "plot-3",
		"farm/observation":            "",
		"event/sustainability/Corn":   "",
	}
	for topic, want := range cases {
		if got := fieldFromTopic(topic); got != want {
			t.Errorf("fieldFromTopic(%q) = %q, want %q", topic, got, want)
		}
	}
}
