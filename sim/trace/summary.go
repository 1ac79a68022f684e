package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents   int
	UniqueSenders int
	KindCounts    map[string]int // event kind → number of records
	FirstTime     float64
	LastTime      float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		KindCounts: make(map[string]int),
	}
	if st == nil || len(st.Events) == 0 {
		return summary
	}

	senders := make(map[string]bool)
	summary.TotalEvents = len(st.Events)
	summary.FirstTime = st.Events[0].Time
	for _, e := range st.Events {
		summary.KindCounts[e.Kind]++
		senders[e.Sender] = true
		if e.Time > summary.LastTime {
			summary.LastTime = e.Time
		}
	}
	summary.UniqueSenders = len(senders)

	return summary
}
