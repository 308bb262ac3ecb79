// Package capture issues one request, collects the entire response and
// classifies it.
//
// A capture either returns a *Result or a *Failure:
//   - TransportError: the exchange never completed
//   - NonOKStatus: the status was anything other than 200
//   - DecodeError: the body was declared JSON but did not parse
//
// JSON bodies are decoded with gjson and can be queried via Result.Field.
package capture
