package main

import (
	"log"

	"yashubustudio/ailian/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
