package main

import (
	"fmt"
	"net/http"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	appConfig "lrcforge/config"
	"lrcforge/controller"
	"lrcforge/database"
	"lrcforge/handlers"
	"lrcforge/models"
	appSentry "lrcforge/sentry"
	"lrcforge/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	appConfig.NewConfig()
	setupLogging()
	appSentry.Init()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func setupLogging() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"module"},
	})

	if level, err := log.ParseLevel(getEnvOr("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}
}

func run() error {
	sess := session.New()
	ctrl := controller.New(sess)

	db, err := database.New(appConfig.Config.Options.DBPath)
	if err != nil {
		log.Warnf("generation history disabled: %v", err)
		appSentry.ReportMessage(fmt.Sprintf("generation history disabled: %v", err))
		db = nil
	} else {
		defer db.Close()
		ctrl.OnComplete(func(t *models.Track) {
			if err := db.SaveGeneration(t); err != nil {
				log.Errorf("saving generation for %s: %v", t.ID, err)
			}
		})
	}

	manager := handlers.NewManager(sess, ctrl, db)

	router := gin.Default()
	router.Use(handlers.GlobalErrors())
	router.Use(appSentry.GetSentryGin())
	manager.Register(router)

	port := appConfig.Config.Options.Port
	if port == "" {
		port = "8080"
	}
	log.Infof("Starting server on :%s", port)
	return http.ListenAndServe(":"+port, router)
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
