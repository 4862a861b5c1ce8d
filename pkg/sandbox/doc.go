/*
Package sandbox mediates every interaction with the container runtime and
guarantees resource release, per the Sandbox Driver responsibility: connect
to the local containerd daemon, materialize a codebase into a host
workspace, create a resource-capped container bound to that workspace, run
the chosen entrypoint, capture its output, and remove both the container
and the workspace on every exit path.

# Operations

  - Connect: establish a session with containerd, verify liveness, pull the
    configured runner image on demand.
  - CreateEnvironment: materialize a Codebase beneath a fresh host temp
    directory's workspace/ subdirectory.
  - Execute: create, start, and tear down one container running the
    codebase's selected entrypoint, returning captured streams, exit code,
    duration, and a resource usage sample.
  - Cleanup: idempotent, unconditional removal of any surviving container
    and the workspace directory.
  - Health: daemon reachability, runner-image presence, running container
    count.

# Entrypoint selection

SelectEntrypoint scans the codebase's files by extension and picks a single
shell command deterministically; see entrypoint.go for the exact ordering.
*/
package sandbox
