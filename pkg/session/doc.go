/*
Package session implements session management and persistence orchestration.

The engine is stateless across invocations: everything needed to resume lives in the
session context. The Manager serializes access to a session across goroutines (and,
with a DistributedLocker, across replicas) so that exactly one invocation mutates a
session at a time, and persists the context through a ports.SessionStore.
*/
package session
