// Package inject rewrites HTML responses on the way out of the gateway,
// appending a project's declared library scripts as a single inline
// script block immediately before the closing body tag.
//
// The rewrite is a streaming transform over golang.org/x/net/html's
// tokenizer: each token's raw bytes are re-emitted as they arrive, so the
// full response body is never buffered. Responses that are not HTML, or
// projects whose declared ids match nothing in the library, bypass the
// transform entirely and pass through byte for byte.
package inject
