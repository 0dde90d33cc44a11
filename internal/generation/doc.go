// Package generation defines the failure taxonomy shared by every outbound
// integration: chat providers, asynchronous image jobs, image search and the
// reference validator. Errors are sentinels wrapped with context, plus
// UpstreamHTTPError for non-2xx answers, and Code maps any of them to the
// stable machine code returned to API clients.
package generation
