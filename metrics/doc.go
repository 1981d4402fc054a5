// SPDX-License-Identifier: MIT

// Package metrics exports vine selection events as Prometheus collectors:
// fitted trees and edges, per-tree latency, selected families and diagnostics.
// Pass a Recorder as vinecop.Controls.Observer.
package metrics
