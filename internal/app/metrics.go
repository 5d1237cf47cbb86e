package app

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var answers = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quiz_answers_total",
		Help: "Answers recorded, by correctness",
	},
	[]string{"correct", "timed_out"},
)

func observeAnswer(correct, timedOut bool) {
	answers.WithLabelValues(strconv.FormatBool(correct), strconv.FormatBool(timedOut)).Inc()
}
