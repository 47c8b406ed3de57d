package main

import (
	"log"

	"github.com/MrSnakeDoc/komiku/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ komiku failed to start: %v", err)
	}
}
