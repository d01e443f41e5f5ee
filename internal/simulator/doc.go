// Package simulator runs vault tasks in-process against a store. It
// fabricates a minimally consistent demo dataset per vault id, creating a
// vault on first access when none exists, and streams new log entries to
// subscribers through a LogBroker.
package simulator
