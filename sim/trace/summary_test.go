package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalEvents != 0 {
		t.Errorf("expected 0 total events, got %d", summary.TotalEvents)
	}
	if summary.UniqueSenders != 0 {
		t.Errorf("expected 0 unique senders, got %d", summary.UniqueSenders)
	}
	if len(summary.KindCounts) != 0 {
		t.Error("expected empty kind counts")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalEvents != 0 || summary.KindCounts == nil {
		t.Errorf("unexpected summary for nil trace: %+v", summary)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with job and host records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.Record(EventRecord{Time: 0, Kind: "JOB_SUBMITTED", Sender: "w0!1"})
	st.Record(EventRecord{Time: 0, Kind: "JOB_SUBMITTED", Sender: "w0!2"})
	st.Record(EventRecord{Time: 2, Kind: "JOB_STARTED", Sender: "w0!1"})
	st.Record(EventRecord{Time: 2, Kind: "HOST_STATE_CHANGED", Sender: "0"})
	st.Record(EventRecord{Time: 7, Kind: "JOB_COMPLETED", Sender: "w0!1"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalEvents != 5 {
		t.Errorf("expected 5 total events, got %d", summary.TotalEvents)
	}
	if summary.KindCounts["JOB_SUBMITTED"] != 2 {
		t.Errorf("expected 2 JOB_SUBMITTED, got %d", summary.KindCounts["JOB_SUBMITTED"])
	}
	if summary.KindCounts["JOB_COMPLETED"] != 1 {
		t.Errorf("expected 1 JOB_COMPLETED, got %d", summary.KindCounts["JOB_COMPLETED"])
	}
	if summary.UniqueSenders != 3 {
		t.Errorf("expected 3 unique senders, got %d", summary.UniqueSenders)
	}
	if summary.FirstTime != 0 || summary.LastTime != 7 {
		t.Errorf("expected time span [0, 7], got [%g, %g]", summary.FirstTime, summary.LastTime)
	}
}
