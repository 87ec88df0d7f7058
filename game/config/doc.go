// Package config loads scenario suites for the game.
//
// A suite is a complete scene graph: the exploration hub, the matching
// puzzles and the topic scenes they hang off. Suites are read from JSON
// (.json) or YAML (.yaml, .yml) files in a suites directory. A built-in
// suite named "default" is always available, even without a directory.
//
// Usage:
//
//	manager, err := config.NewManager("suites")
//	if err != nil {
//		log.Fatal().Err(err).Msg("suites")
//	}
//
//	suite, err := manager.Load("classroom")
//	infos, err := manager.List()
//	def := manager.Default()
//
// Validation:
//
// Every loaded suite is checked for:
//   - Unique scene names across hub, puzzles and topic scenes
//   - A start scene that exists
//   - Puzzle rows that match a bijective solution
//   - Parents, links and hub tile scenes that resolve
package config
