/*
Package llm turns a natural-language request into host scripting code by
talking to an OpenAI-compatible completion proxy.

# Request Flow

A completion runs the following steps, each in its own file:

 1. Message building (message.go)
    - One system instruction, the last ten history turns and the wrapped prompt
    - Assistant turns are fenced so the model sees its earlier code as quoted text

 2. Strategy selection (strategy.go)
    - sdk: eino-ext OpenAI chat model with the proxy URL and key
    - direct-http: unauthenticated POSTs to a fixed list of candidate paths
    - default-sdk: eino-ext OpenAI chat model with ambient credentials

 3. Code extraction (extract.go)
    - First fenced block wins, otherwise the whole reply is used

Model discovery (models.go) probes the proxy's model listing endpoints and
falls back to the manual list from configuration and then to a built-in list.
Every list carries the provenance of the tier that produced it.

# Error Handling

Public operations never return errors. A failed candidate is logged, recorded
in the caller's Recorder and the next candidate is tried. When everything
fails the caller gets an empty result and decides what to show the user.

# Ambient Credentials

The default-sdk strategy reads credentials from an Ambient value owned by the
Service. The sdk strategy swaps the proxy credentials in for exactly one call
and restores the previous value on every exit path.
*/
package llm
