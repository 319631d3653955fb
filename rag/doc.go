// Package rag answers chat messages in a persona's voice using retrieval
// augmented generation.
//
// A chat turn works through three layers:
//
//  1. Keyword rules: persona-configured canned responses checked before any
//     model call. A match short-circuits the turn entirely.
//  2. Retrieval: the message is embedded and the persona's most similar
//     content chunks are fetched, concurrently with the persona's facts,
//     Q&A examples and topics to avoid.
//  3. Generation: a system prompt assembled from all of the above drives the
//     generation backend.
//
// The package is deliberately failure-tolerant: after the persona lookup,
// every downstream problem degrades the reply (less context, or an apology
// in the persona's name) instead of surfacing an error to the caller.
package rag
