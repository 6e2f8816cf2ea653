package training

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crewdesk",
		Subsystem: "training",
		Name:      "exam_submissions_total",
		Help:      "Graded exam submissions, by outcome.",
	}, []string{"passed"})

	scores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crewdesk",
		Subsystem: "training",
		Name:      "exam_score_percent",
		Help:      "Distribution of graded exam scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
)

func observeSubmission(res ExamResult) {
	submissions.WithLabelValues(strconv.FormatBool(res.Passed)).Inc()
	scores.Observe(res.Score)
}
