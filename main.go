package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/byteshifted/mailpanel/config"
	"github.com/byteshifted/mailpanel/internal/database"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/server"
)

func main() {
	app := &cli.App{
		Name:  "mailpanel",
		Usage: "Email hosting admin panel API",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the API server",
				Action: func(c *cli.Context) error {
					cfg, err := config.InitConfig()
					if err != nil {
						return err
					}

					appLogger := initLogger(cfg)

					db, err := database.NewConnection(cfg.DatabaseConfig)
					if err != nil {
						appLogger.Fatalf("Failed to connect to database: %v", err)
					}

					return server.NewServer(cfg, appLogger, db).Run()
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(c *cli.Context) error {
					cfg, err := config.InitConfig()
					if err != nil {
						return err
					}

					appLogger := initLogger(cfg)

					db, err := database.NewConnection(cfg.DatabaseConfig)
					if err != nil {
						appLogger.Fatalf("Failed to connect to database: %v", err)
					}

					if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
						appLogger.Fatalf("Failed to migrate database: %v", err)
					}

					appLogger.Info("Database migration completed")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func initLogger(cfg *config.Config) logger.Logger {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()
	return appLogger
}
