package data

import "embed"

var (
	//go:embed games.yaml
	Games embed.FS
)
