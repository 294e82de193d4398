// SPDX-License-Identifier: MIT

package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "plugdeck_bridge_calls_total",
	Help: "Remote calls issued to the host, by operation and outcome",
}, []string{"operation", "outcome"})

func observeCall(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	callsTotal.WithLabelValues(operation, outcome).Inc()
}
