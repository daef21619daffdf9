package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/civicfix/complaint-api/api/handlers"
	"github.com/civicfix/complaint-api/config"
	"github.com/civicfix/complaint-api/logging"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, scheduler and router
		log.Fatal(err)
	}
	defer a.Scheduler.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	logging.New().Infow("complaint-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
