// Package preview manages the animated overlays shown while the pointer
// hovers a hub tile.
//
// Each tile owns at most one overlay. Entering a tile replaces whatever
// overlay it had, leaving a tile destroys it, and the static image of a tile
// is hidden exactly while its overlay is live. Activating a tile tears down
// every overlay before asking the navigator for the tile's scene.
package preview
