/*
Package expert is the Expert Invocation Layer.

Each Role is bound to one model capability and one structured output shape. The Invoker
executes a role, decodes the response strictly into the role's shape and applies the
one-shot fallback policy: roles bound to the primary capability are hard dependencies and
never fall back, every other role is retried once against the fallback capability when its
capability fails or returns a response that does not match the shape.

Capabilities can be decorated with Middleware (rate limiting, logging) using Wrap.
*/
package expert
