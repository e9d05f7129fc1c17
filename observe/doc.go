// Package observe provides logging, tracing and metrics for the vendora
// client core.
//
// Logging is backed by zap with sensitive field redaction. Tracing and
// metrics are OpenTelemetry; exporters are selected by name through the
// exporters subpackage. Middleware wraps a single operation (a backend
// request, a catalog refresh) with a span, a duration histogram and a log
// line.
package observe
