// Package logging provides a simple leveled logging interface for the
// snapspot pipeline.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (stale results, per-source misses)
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Records are written as JSON by zerolog;
// set LOG_FORMAT=console for human readable output during development.
package logging
