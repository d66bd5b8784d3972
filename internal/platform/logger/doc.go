// Package logger configures the process-wide JSON slog logger and carries
// request- and job-scoped loggers through context.Context, so that trace,
// presentation and job identifiers appear on every line logged while
// handling them.
package logger
