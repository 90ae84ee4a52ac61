// Package config provides rule set management for the Balance Tower game.
//
// The config package handles:
//   - The built-in classic rule set
//   - Loading additional rule sets from JSON files
//   - Rule validation and caching
//   - Default rule set selection and listing
//
// Rules Format:
//
// A rules file is a JSON object named after its id (e.g. rules/tall.json).
// Every field is optional; missing fields keep their classic values:
//
//	{
//	  "name": "tall",
//	  "description": "Heavier long blocks",
//	  "catalog": [
//	    {"type": "small", "size": 1, "weight": 1, "center": 0},
//	    {"type": "long", "size": 3, "weight": 4, "center": 1}
//	  ],
//	  "copies_per_kind": 6,
//	  "token_threshold": 3.0,
//	  "default_players": 2,
//	  "min_players": 1,
//	  "max_players": 6,
//	  "max_rounds": 8
//	}
//
// Usage:
//
//	manager, err := config.NewManager("rules")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.LoadRules("tall")
//	defaultRules := manager.GetDefault()
package config
