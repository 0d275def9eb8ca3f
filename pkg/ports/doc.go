/*
Package ports defines the driven ports (interfaces) of the MotherLink service.

These interfaces decouple the traversal core from external implementations, allowing
the engine to work with various session backends and remote collaborators.

# Key Interfaces

  - SessionStore: Persists and loads Session values (memory, Redis).
  - DistributedLocker: Serializes requests for one session across replicas.
  - Translator: Key to string lookup with locale fallback.
  - UserRegistry, EmergencyReporter, Notifier, GuidanceProvider: remote collaborators
    reached by the terminal handlers.
*/
package ports
