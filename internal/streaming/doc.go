// Package streaming writes Server-Sent Events.
//
// An EventStream owns one response: it sends the event-stream headers,
// frames each event as
//
//	event: <name>
//	data: <json>
//
// and flushes after every frame. Each write gets a deadline so a stalled
// client cannot hold the handler forever.
package streaming
