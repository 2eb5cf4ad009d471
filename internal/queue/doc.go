// Package queue provides the bounded FIFO queues that connect the transport,
// the listener, the speaker and waiting machines.
//
// A Queue is a thin wrapper around a buffered channel: any number of
// producers and consumers may share it, items come out in submission order,
// and Get waits at most a bounded interval so that worker loops can recheck
// the shutdown switch between polls.
package queue
