// Package assistant implements the chat assistant for the sales ERP:
// a bounded tool-orchestration loop that lets a language model answer
// questions by calling read-only data tools.
//
// The loop sends the conversation and the tool catalogue to the model.
// The model either answers directly, in which case the text is
// streamed to the caller, or requests tool calls, which are executed
// concurrently against the store and fed back as tool results. Each
// model invocation consumes one step of a fixed budget; the final
// budgeted invocation is made without tools so the model must answer
// with what it has.
//
// Tool failures never abort a request. Malformed arguments, unknown
// tool names, and store errors all become structured failed results
// that the model can react to within its remaining budget. Only model
// invocation failures propagate to the transport layer.
package assistant
