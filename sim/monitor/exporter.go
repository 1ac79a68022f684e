package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Exporter publishes a SimulationInfo as Prometheus gauges.
type Exporter struct {
	// Makespan of the run in simulated seconds
	makespan prometheus.Gauge

	// Jobs by outcome
	// Labels: outcome (submitted, finished, success, killed, rejected)
	jobs *prometheus.GaugeVec

	// Per-job metric aggregates
	// Labels: metric (slowdown, pp_slowdown, stretch, waiting_time, turnaround_time), stat (max, mean)
	jobMetric *prometheus.GaugeVec

	// Time spent by all hosts in each state, in simulated seconds
	// Labels: state
	hostTime *prometheus.GaugeVec

	consumedJoules prometheus.Gauge
	energyWaste    prometheus.Gauge
	switches       prometheus.Gauge
	hosts          prometheus.Gauge

	// Wall-clock duration of the run
	simulationTime prometheus.Gauge
}

// NewExporter creates an Exporter. Every metric carries the constant label
// run set to runID.
func NewExporter(runID string) *Exporter {
	labels := prometheus.Labels{"run": runID}
	gauge := func(subsystem, name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "batsim",
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	gaugeVec := func(subsystem, name, help string, labelNames ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "batsim",
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, labelNames)
	}

	return &Exporter{
		makespan:       gauge("scheduler", "makespan_seconds", "Simulated time at which the last job finished"),
		jobs:           gaugeVec("scheduler", "jobs", "Number of jobs by outcome", "outcome"),
		jobMetric:      gaugeVec("scheduler", "job_metric", "Aggregates of per-job scheduling metrics", "metric", "stat"),
		hostTime:       gaugeVec("host", "time_seconds", "Simulated time spent by all hosts in each state", "state"),
		consumedJoules: gauge("host", "consumed_joules", "Energy consumed by the platform"),
		energyWaste:    gauge("host", "energy_waste_joules", "Energy consumed while not computing"),
		switches:       gauge("host", "pstate_switches", "Number of power state switches"),
		hosts:          gauge("host", "machines", "Number of hosts on the platform"),
		simulationTime: gauge("simulation", "wall_time_seconds", "Wall-clock duration of the run"),
	}
}

// Register registers all collectors with registry.
func (e *Exporter) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		e.makespan,
		e.jobs,
		e.jobMetric,
		e.hostTime,
		e.consumedJoules,
		e.energyWaste,
		e.switches,
		e.hosts,
		e.simulationTime,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Update sets every gauge from info.
func (e *Exporter) Update(info SimulationInfo) {
	e.makespan.Set(info.Makespan)

	e.jobs.WithLabelValues("submitted").Set(float64(info.NbJobs))
	e.jobs.WithLabelValues("finished").Set(float64(info.NbJobsFinished))
	e.jobs.WithLabelValues("success").Set(float64(info.NbJobsSuccess))
	e.jobs.WithLabelValues("killed").Set(float64(info.NbJobsKilled))
	e.jobs.WithLabelValues("rejected").Set(float64(info.NbJobsRejected))

	for _, m := range []struct {
		name      string
		max, mean float64
	}{
		{"slowdown", info.MaxSlowdown, info.MeanSlowdown},
		{"pp_slowdown", info.MaxPPSlowdown, info.MeanPPSlowdown},
		{"stretch", info.MaxStretch, info.MeanStretch},
		{"waiting_time", info.MaxWaitingTime, info.MeanWaitingTime},
		{"turnaround_time", info.MaxTurnaroundTime, info.MeanTurnaroundTime},
	} {
		e.jobMetric.WithLabelValues(m.name, "max").Set(m.max)
		e.jobMetric.WithLabelValues(m.name, "mean").Set(m.mean)
	}

	e.hostTime.WithLabelValues("idle").Set(info.TimeIdle)
	e.hostTime.WithLabelValues("computing").Set(info.TimeComputing)
	e.hostTime.WithLabelValues("switching_off").Set(info.TimeSwitchingOff)
	e.hostTime.WithLabelValues("switching_on").Set(info.TimeSwitchingOn)
	e.hostTime.WithLabelValues("sleeping").Set(info.TimeSleeping)

	e.consumedJoules.Set(info.ConsumedJoules)
	e.energyWaste.Set(info.EnergyWaste)
	e.switches.Set(float64(info.NbSwitches))
	e.hosts.Set(float64(info.NbComputingMachines))
	e.simulationTime.Set(info.SimulationTime)
}
