// Package agui bridges the loom update stream to the AG-UI wire protocol.
//
// The server side exposes a loom agent as a single POST endpoint streaming
// AG-UI events over Server-Sent Events: updates flow through a tool
// partitioner (which separates frontend-executed tool calls from calls the
// agent already resolved) and an encoder that brackets incremental content in
// well-nested Start/End envelopes.
//
// The client side is the inverse: a Decoder turns an SSE byte stream back
// into updates, and Client implements loom.Agent on top of it so a remote
// AG-UI agent is substitutable anywhere a local one is expected, including
// under the agent package's tool-running loop.
package agui
