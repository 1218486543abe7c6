package main

import (
	"lyricbridge/internal/app"
	"lyricbridge/internal/config"
)

func main() {
	cfg := config.Load()
	app := app.New(cfg)
	app.Run()
}
