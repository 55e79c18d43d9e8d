/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package dispatch

import "github.com/prometheus/client_golang/prometheus"

// metricAcceptedTotal/metricOpenConnections are registered once per process
// and labeled per unit id, mirroring the teacher's prometheus/metrics
// per-label registration idiom.
var (
	metricAcceptedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "socket_unit_connections_accepted_total",
		Help: "Total connections accepted and handed off by a socket-activation unit.",
	}, []string{"unit_id"})

	metricOpenConnections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "socket_unit_connections_open",
		Help: "Connections currently dispatched and awaiting release by a socket-activation unit.",
	}, []string{"unit_id"})
)

func init() {
	prometheus.MustRegister(metricAcceptedTotal, metricOpenConnections)
}
