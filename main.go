/*
Copyright © 2025 arqlabs
*/
package main

import (
	"log"

	"github.com/arqlabs/voice-rag-be/cmd"
	"github.com/joho/godotenv"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
}
