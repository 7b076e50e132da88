// Package supervise launches child processes and guarantees they cannot run
// forever. Each Managed process owns exactly one Handle and arms at most one
// watcher (a fixed deadline or a periodic check evaluator) that races the
// process's natural exit. Whichever side observes completion first claims an
// atomic single-fire flag and determines the final Outcome; the other side
// stands down without sending signals. No alarm signals are used anywhere, so
// supervision is safe inside multi-threaded hosts.
//
// Termination escalates from a graceful signal to a forceful one after a
// grace period. On Unix signals are delivered to the child's process group,
// so direct children of the supervised command are terminated as well. This
// is best effort: without kernel job control a grandchild that leaves the
// group can survive and must be cleaned up by the caller. On Windows only the
// top-level process is signalled.
package supervise
