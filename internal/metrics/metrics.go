// Package metrics declares the Prometheus collectors of the gateway.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "session",
		Name:      "sign_ins_total",
		Help:      "Sign-in attempts broken down by auth type and result.",
	}, []string{"type", "result"})

	signOuts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "session",
		Name:      "sign_outs_total",
		Help:      "Sign-outs broken down by reason (user, unauthorized).",
	}, []string{"reason"})

	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Calls to the procurement API and the decision center by service and status.",
	}, []string{"service", "status"})

	staleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "list",
		Name:      "stale_responses_total",
		Help:      "List responses dropped because a newer request was issued.",
	}, []string{"screen"})

	approvalAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "approvals",
		Name:      "answers_total",
		Help:      "Decisions submitted to the decision center by option class and result.",
	}, []string{"option", "result"})
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func SignIn(typeAuth string, err error) {
	if typeAuth == "" {
		typeAuth = "local"
	}
	signIns.WithLabelValues(typeAuth, result(err)).Inc()
}

func SignOut(reason string) { signOuts.WithLabelValues(reason).Inc() }

// Upstream records one upstream call.  status 0 means the call never got a
// response.
func Upstream(service string, status int) {
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamRequests.WithLabelValues(service, label).Inc()
}

func StaleResponse(screen string) { staleResponses.WithLabelValues(screen).Inc() }

func ApprovalAnswer(option string, err error) {
	approvalAnswers.WithLabelValues(option, result(err)).Inc()
}
