package kv

import (
	"github.com/VictoriaMetrics/metrics"
)

var (
	putTotal = metrics.NewCounter(`portkv_client_requests_total{op="put"}`)
	getTotal = metrics.NewCounter(`portkv_client_requests_total{op="get"}`)
	delTotal = metrics.NewCounter(`portkv_client_requests_total{op="del"}`)

	putErrors = metrics.NewCounter(`portkv_client_errors_total{op="put"}`)
	getErrors = metrics.NewCounter(`portkv_client_errors_total{op="get"}`)
	delErrors = metrics.NewCounter(`portkv_client_errors_total{op="del"}`)

	getTimeouts = metrics.NewCounter(`portkv_client_get_timeouts_total`)

	getDuration = metrics.NewHistogram(`portkv_client_get_duration_seconds`)
)
