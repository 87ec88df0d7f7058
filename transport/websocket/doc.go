// Package websocket pushes session updates to browser and desktop clients.
//
// A central Hub owns every connection. Clients attach to one session with
// GET /ws?session=<id>; they never send commands over the socket, all actions
// go through the REST API. After each state change the server pushes the
// puzzle events of that change followed by a full snapshot:
//
//	{"session_id": "a1b2", "event": "matched", "data": {...}}
//	{"session_id": "a1b2", "event": "state_update", "snapshot": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.BroadcastResult(sessionID, result)
package websocket
