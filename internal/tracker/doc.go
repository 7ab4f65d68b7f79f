// Package tracker runs the screen-time tracking loop.
//
// A Session pulls a snapshot of running applications on every tick, folds it
// through the idle classifier, and appends the result to the usage log. A tick
// runs as soon as the session starts and then once per interval until the
// context is cancelled or Stop is called. Stop lets an in-flight tick finish.
//
// The package also carries the PID-file plumbing used to run a session in the
// background and to stop it from another terminal.
package tracker
