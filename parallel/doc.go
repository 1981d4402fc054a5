// SPDX-License-Identifier: MIT

// Package parallel runs index-addressed jobs on a bounded errgroup.
//
// Results never depend on the worker count: Plan fixes batch boundaries from the
// problem size alone, and every job writes only to its own output slots.
// Random streams, when needed, are derived per batch from the batch number
// (see qrng.DeriveSeed), not per worker.
package parallel
