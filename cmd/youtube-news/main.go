package main

import (
	"log"

	"github.com/grjus/youtube-news/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("youtube-news failed to start: %v", err)
	}
}
