// Package internaldefs holds the shared metric name tables used by the
// exporters under metrics/export. It exists so every exporter emits the
// same names for the same engine counters.
package internaldefs
