/*
Package session implements the session store operations and their lifecycle.

The Manager is the sole mutator of session fields: it shallow-merges partial updates,
refreshes the last activity timestamp on every write, and serializes requests for one
session ID (locally, and across replicas when a DistributedLocker is configured).
The Sweeper evicts sessions that stayed idle longer than a fixed threshold.
*/
package session
