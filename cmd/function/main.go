// Command function runs the Cloud Functions locally through the functions
// framework. Set FUNCTION_TARGET to Chat or Inbox.
package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/rs/zerolog/log"

	_ "destiny_blue"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := funcframework.Start(port); err != nil {
		log.Fatal().Err(err).Msg("funcframework.Start failed")
	}
}
