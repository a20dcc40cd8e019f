package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Total number of import runs broken down by result.",
	}, []string{"result"})

	importPersons = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "import",
		Name:      "persons_created_total",
		Help:      "Total number of persons created by committed imports.",
	})

	importLinks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "import",
		Name:      "links_created_total",
		Help:      "Total number of supervisor links created by committed imports.",
	})

	importWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "import",
		Name:      "warnings_total",
		Help:      "Total number of import warnings broken down by kind.",
	}, []string{"kind"})

	exportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "export",
		Name:      "runs_total",
		Help:      "Total number of hierarchy builds broken down by status.",
	}, []string{"status"})

	exportNodes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "export",
		Name:      "nodes_total",
		Help:      "Total number of person nodes emitted by hierarchy builds.",
	})
)

func recordImport(result string, res *ImportResult) {
	if result == "" {
		result = "failed"
	}
	importRuns.WithLabelValues(result).Inc()
	if res == nil {
		return
	}
	for _, w := range res.Warnings {
		importWarnings.WithLabelValues(string(w.Kind)).Inc()
	}
	if res.DryRun {
		return
	}
	importPersons.Add(float64(res.PersonsCreated))
	importLinks.Add(float64(res.LinksCreated))
}

func recordExport(status string, nodes int) {
	exportRuns.WithLabelValues(status).Inc()
	exportNodes.Add(float64(nodes))
}
