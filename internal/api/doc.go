// Package api implements the HTTP surface of the sales ERP backend.
//
// The core endpoint is POST /chat, which runs the assistant's
// tool-orchestration loop and streams the answer back as plain text.
// Around it sit JSON CRUD endpoints for products, categories,
// customers, orders, and the company profile, plus health probes.
//
// Middleware stack (outermost first): recovery, request ID, logging,
// per-IP rate limiting. Health probes bypass the stack.
package api
