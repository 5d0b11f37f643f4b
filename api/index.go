package handler

import (
	"net/http"
	"sync"

	"lodge/config"
	"lodge/di"
	"lodge/shared/logger"
)

var (
	app  *di.App
	once sync.Once
)

// Handler is the serverless entrypoint. Background workers do not run here;
// the deployment that runs cmd/app owns the monitors and the push consumer.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	once.Do(func() {
		cfg := config.Get()

		logger.InitLogger()

		logger.SetLogLevel(cfg)

		app = di.InitializeApp()
	})

	app.HTTP.ServeHTTP(w, r)
}
