// costplane CLI - billing export ingestion.
//
// Usage:
//   costplane migrate
//   costplane ingest --file export.csv --provider aws --client 1234
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/urfave/cli/v2"

	"github.com/costplane/costplane/internal/config"
	dimensionrepository "github.com/costplane/costplane/internal/dimension/repository"
	dimensionservice "github.com/costplane/costplane/internal/dimension/service"
	factrepository "github.com/costplane/costplane/internal/fact/repository"
	factservice "github.com/costplane/costplane/internal/fact/service"
	ingestservice "github.com/costplane/costplane/internal/ingest/service"
	mappingrepository "github.com/costplane/costplane/internal/mapping/repository"
	mappingservice "github.com/costplane/costplane/internal/mapping/service"
	"github.com/costplane/costplane/internal/migration"
	uploadrepository "github.com/costplane/costplane/internal/upload/repository"
	uploadservice "github.com/costplane/costplane/internal/upload/service"
	"github.com/costplane/costplane/pkg/db"
	"github.com/costplane/costplane/pkg/log"
)

func main() {
	app := &cli.App{
		Name:  "costplane",
		Usage: "Multi-cloud billing export ingestion",
		Commands: []*cli.Command{
			migrateCommand(),
			ingestCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations",
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			conn, err := db.New(cfg)
			if err != nil {
				return err
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Ingest one billing export CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the export CSV",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    "Billing provider (aws, azure, gcp, focus)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "client",
				Aliases:  []string{"c"},
				Usage:    "Tenant client id",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			logger, err := log.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			clientID, err := strconv.ParseInt(c.String("client"), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid client id %q: %w", c.String("client"), err)
			}

			conn, err := db.New(cfg)
			if err != nil {
				return err
			}
			node, err := snowflake.NewNode(1)
			if err != nil {
				return err
			}

			uploads := uploadservice.New(uploadservice.Params{
				DB: conn, Log: logger, GenID: node, Repo: uploadrepository.Provide(),
			})
			mappings := mappingservice.New(mappingservice.Params{
				DB: conn, Log: logger, GenID: node, Repo: mappingrepository.Provide(),
			})
			dimensions := dimensionservice.New(dimensionservice.Params{
				DB: conn, Log: logger, Repo: dimensionrepository.Provide(node),
			})
			factory := factservice.NewFactory(factservice.FactoryParams{
				DB: conn, Log: logger, GenID: node, Repo: factrepository.Provide(),
			}).WithBatchSize(cfg.FactBatchSize)
			pipeline := ingestservice.New(ingestservice.Params{
				DB:           conn,
				Log:          logger,
				UploadSvc:    uploads,
				MappingSvc:   mappings,
				DimensionSvc: dimensions,
				FactFactory:  factory,
			})

			file, err := os.Open(c.String("file"))
			if err != nil {
				return err
			}
			defer file.Close()

			headers, records, err := ingestservice.ReadCSV(file)
			if err != nil {
				return err
			}

			ctx := c.Context
			upload, err := uploads.Create(ctx, snowflake.ID(clientID), c.String("provider"), c.String("file"))
			if err != nil {
				return err
			}
			if err := pipeline.IngestRows(ctx, upload.ID, snowflake.ID(clientID), upload.Provider, headers, records); err != nil {
				return err
			}

			fmt.Printf("upload %s ingested: %d rows\n", upload.ID, len(records))
			return nil
		},
	}
}
