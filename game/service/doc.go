// Package service provides the business logic layer for the crisis scenarios
// game.
//
// The service package implements:
//   - Multi-session management, one scene graph per session
//   - Input routing to the active scene (puzzle, hub or topic page)
//   - Per-session virtual clocks advanced by ticks
//   - Suite listing and loading
//
// Core Interfaces:
//
// GameService is the main service interface used by the transports.
// SessionManager stores sessions. SuiteManager loads scenario suites.
//
// Architecture:
//
// Each Session owns a World: a host.Canvas, a host.FrameScheduler and a
// scene.Director with every scene of the suite registered. The cores are
// single threaded, so every call that touches a World holds the session's
// lock. Delayed puzzle behavior only happens when the session's clock is
// advanced, either by Tick or by AdvanceAll from the server's clock routine.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	suiteMgr, _ := config.NewManager("suites")
//	gameService := service.NewGameService(sessionMgr, suiteMgr)
//
//	info, err := gameService.CreateSession(ctx, "default")
//	if err != nil {
//		log.Fatal().Err(err).Msg("create session")
//	}
//
//	result, err := gameService.Navigate(ctx, info.ID, "WaterGame")
//	result, err = gameService.SelectPrompt(ctx, info.ID, 0)
package service
