// Package config loads cardstock settings from defaults, an optional
// config.yaml and CARDSTOCK_ environment variables, then validates them.
// The redis and llm sections are optional and switch their features off
// while left empty.
package config
