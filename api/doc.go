// Package api exposes the game service over HTTP.
//
// Routes (gorilla/mux):
//
//	POST   /api/sessions                  {suite_id}      create a session
//	GET    /api/sessions                  ?sort&order&limit
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/state                       full snapshot
//	POST   /api/sessions/{id}/select      {index}         pick a prompt
//	POST   /api/sessions/{id}/attempt     {index}         pair with a target
//	POST   /api/sessions/{id}/continue                    leave a solved puzzle
//	POST   /api/sessions/{id}/reset
//	POST   /api/sessions/{id}/hover       {tile, enter}   hub preview
//	POST   /api/sessions/{id}/activate    {tile}          open a hub tile
//	POST   /api/sessions/{id}/follow      {link}          follow a topic link
//	POST   /api/sessions/{id}/back
//	POST   /api/sessions/{id}/navigate    {scene}
//	POST   /api/sessions/{id}/tick        {ms}            advance the clock
//	GET    /api/suites
//	GET    /api/suites/{name}
//	GET    /health
//	GET    /ws?session={id}
//
// Every action answers with a service.ActionResult and pushes the same
// events and snapshot to the session's websocket clients.
//
// Errors are JSON objects {"error": "..."}: 400 for malformed input or
// out-of-range indexes, 404 for unknown sessions, scenes and suites, 409 for
// operations the current scene does not offer.
package api
