/*
Package ports defines the driven ports (interfaces) for the Blueprint engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various model providers, storage backends and knowledge sources.

# Key Interfaces

  - KnowledgeBase: Supplies the architecture patterns and their fitness scores.
  - Capability: Executes one structured-output model request.
  - SessionStore: Responsible for persisting and loading session contexts.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
