// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder on stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - key-value convenience functions (InfoKV, WarnKV, etc.).
//
// Every pipeline stage accepts a context and extracts the logger from it, so
// entries carry the component name and the run attributes.
package logger
