package config

import (
	"github.com/wricardo/mcp-training/crisisgame/game/host"
	"github.com/wricardo/mcp-training/crisisgame/game/preview"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

// DefaultSuiteID is the id of the built-in suite
const DefaultSuiteID = "default"

// DefaultSuite returns the built-in suite: the six crisis topics around the
// exploration hub and the water management matching game.
func DefaultSuite() *Suite {
	hubTile := func(col, row int, key, name, sceneName string) preview.Tile {
		return preview.Tile{
			Key:      key,
			Name:     name,
			ImageKey: key + "_icon",
			MediaKey: key + "_video",
			Scene:    sceneName,
			At:       host.Point{X: 320 + float64(col)*310, Y: 210 + float64(row)*250},
		}
	}

	topic := func(name, title, body string) scene.InfoDef {
		return scene.InfoDef{Name: name, Title: title, Body: body, Parent: "exploreScene"}
	}

	water := topic("WaterScene", "Water Management",
		"Irrigation choices decide how much water a crop needs and how much the soil keeps.")
	water.Links = []scene.Link{{Label: "Try Your Info", Scene: "WaterGame"}}

	return &Suite{
		Name:        "Crisis Scenarios",
		Description: "Explore six climate crises and match farming practices to the crops they suit",
		Start:       "exploreScene",
		Hub: &scene.HubDef{
			Name:  "exploreScene",
			Title: "Choose a crisis to explore",
			Tiles: []preview.Tile{
				hubTile(0, 0, "heatmap", "Heat", "HeatmapScene"),
				hubTile(1, 0, "flood", "Flood", "scene-game"),
				hubTile(2, 0, "drought", "Drought", "MoistureScene"),
				hubTile(0, 1, "salinized", "Salinized Soil", "SalinizedScene"),
				hubTile(1, 1, "water", "Water Management", "WaterScene"),
				hubTile(2, 1, "animals", "Animals", "AnimalsScene"),
			},
			Scale: preview.DefaultScaleTable(),
		},
		Puzzles: []scene.MatchDef{
			{
				Name:         "WaterGame",
				Title:        "Water Management Matching Game",
				Instructions: "Match the first row situations with their best fitted crop using the table!",
				Parent:       "WaterScene",
				Prompts: []puzzle.Item{
					{Label: "Mulching", ImageKey: "mulching"},
					{Label: "Breathing", ImageKey: "breathe"},
					{Label: "Over Watering", ImageKey: "over_watering"},
				},
				Targets: []puzzle.Item{
					{Label: "Corn", ImageKey: "corn"},
					{Label: "Protein Feed", ImageKey: "soybean"},
					{Label: "Rice", ImageKey: "rice"},
				},
				Solution: puzzle.Solution{1, 2, 0},
			},
		},
		Scenes: []scene.InfoDef{
			topic("HeatmapScene", "Heat", "Rising temperatures stress crops and livestock."),
			topic("scene-game", "Flood", "Heavy rain floods fields and washes soil away."),
			topic("MoistureScene", "Drought", "Dry soil leaves crops without the moisture they need."),
			topic("SalinizedScene", "Salinized Soil", "Salt builds up where irrigation water evaporates."),
			water,
			topic("AnimalsScene", "Animals", "Heat and drought change how animals are raised."),
		},
	}
}
