// Package scene provides the Director that moves the player between scenes
// and the scenes themselves.
//
// # Scenes
//
//   - HubScene: the exploration grid. Hovering a tile plays its preview,
//     activating it opens the tile's scene.
//   - MatchScene: a pair-matching puzzle. Every Enter builds a fresh engine
//     and renderer; Exit tears both down so nothing survives the scene.
//   - InfoScene: a topic page with links to other scenes and a parent to
//     go back to.
//
// # Director
//
// The Director implements host.Navigator. A transition exits the current
// scene before entering the next one. Requests made while a transition is in
// progress are queued and run once it finishes.
//
//	d := scene.NewDirector()
//	d.Register(hub)
//	d.Register(match)
//	if err := d.Start("exploreScene"); err != nil {
//		return err
//	}
package scene
