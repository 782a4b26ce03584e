// Package internaldefs holds the metric names, help strings and bucket bounds
// shared by the Prometheus and OTel exporters, so both expose identical names.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
