// SPDX-License-Identifier: MIT

package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commitFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "plugdeck_proxy_commit_failures_total",
	Help: "Fire-and-forget config saves the host rejected",
})
