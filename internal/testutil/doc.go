// Package testutil provides shared helpers for the gateway test suites:
// request builders for exercising HTTP handlers, random value generation,
// and small assertion wrappers.
package testutil
