package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/reaandrew/securecodeauditor/config"
	log "github.com/sirupsen/logrus"
)

var Version string

func setupLogging(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.LogFile == "" {
		log.SetOutput(os.Stderr)
		return
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Println("Failed to open log file:", err)
		return
	}
	log.SetOutput(logFile)
}

func main() {
	if _, exists := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME"); exists {
		handler, err := NewLambdaHandler(context.Background())
		if err != nil {
			log.Fatalf("Error initialising Lambda handler: %v", err)
		}
		log.Println("Starting in Lambda mode")
		lambda.Start(handler.Handle)
	} else {
		cli := &Cli{}
		if err := cli.Execute(); err != nil {
			os.Exit(1)
		}
	}
}
