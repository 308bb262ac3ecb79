// Package http provides the transport side of a capture.
//
// It wraps the standard library's http package with:
//   - One connection per call (keep-alives disabled)
//   - Two interchangeable ways of describing the target (DirectURL, ParsedOptions)
//   - Method defaulting (POST with a body, GET without)
//   - Fully buffered response bodies
package http
