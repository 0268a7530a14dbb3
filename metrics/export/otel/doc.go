// Package otel exports engine metrics through an OpenTelemetry meter.
// It registers observable instruments for every counter and histogram
// and reads a fresh snapshot on each collection cycle.
package otel
