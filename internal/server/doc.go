// Package server implements the dopd accept/dispatch core: a listening
// endpoint owned by the parent role, a worker per accepted connection, and a
// coordinator that serializes accept results, OS signals, and worker
// completions through a single event loop.
//
// Roles:
// The process as a whole holds the parent role for as long as the listening
// socket is open; closing the listener is the one and only transition into
// stopping. Each accepted connection is served by a Worker, an isolated
// execution context that receives the connection and its collaborators and
// nothing else - in particular never the listener and never the completion
// drain. A worker performs exactly one message exchange and terminates.
//
// Coordination:
// One goroutine runs the event loop in Serve. Accept results, termination
// signals, and worker completion events are all delivered over channels into
// that loop, so no two of those handlers ever run concurrently and role
// checks are always consistent with the action taken in the same iteration.
// Completion events are drained in a loop: one wakeup reaps every worker
// that has finished so far, never just one.
package server
