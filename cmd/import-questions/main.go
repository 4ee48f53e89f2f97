// Command import-questions loads a CSV or XLSX sheet of questions into a test.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/config"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories/casdoor"
	"github.com/brainmetric/quiz-service/internal/repositories/postgres"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/validator"
	"github.com/brainmetric/quiz-service/pkg"
)

func main() {
	app := &cli.App{
		Name:      "import-questions",
		Usage:     "import questions from a ';'-delimited CSV or an .xlsx sheet",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "test", Value: "Полный IQ Тест (Стандарт)", Usage: "title of the test to add questions to"},
			&cli.StringFlag{Name: "description", Value: "Комплексная проверка интеллекта: Логика, Математика, Память, Пространство. 96 вопросов.", Usage: "description when the test is created"},
			&cli.IntFlag{Name: "questions-count", Value: 96, Usage: "questions per attempt when the test is created"},
			&cli.IntFlag{Name: "time-limit", Value: 60, Usage: "time limit in minutes when the test is created"},
			&cli.StringFlag{Name: "audience", Value: string(models.AudienceGeneral), Usage: "general or recruiter"},
			&cli.StringFlag{Name: "media", Usage: "media root, defaults to MEDIA_ROOT"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("missing file argument", 2)
	}

	format, err := services.FormatFromPath(path)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		if redisClient, err = pkg.NewRedisClient(cfg); err != nil {
			logger.Warn("Redis unavailable, catalogue cache will not be invalidated", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		return err
	}
	defer repoManager.Shutdown(context.Background())

	importer := services.NewImportService(repoManager.GetRepository(), db, logger, validator.New(), cache.NewCacheManager(redisClient))

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, rowErrs, err := importer.ParseRows(f, format)
	if err != nil {
		return err
	}

	mediaRoot := c.String("media")
	if mediaRoot == "" {
		mediaRoot = cfg.MediaRoot
	}

	report, err := importer.Import(c.Context, rows, models.ImportOptions{
		TestTitle:      c.String("test"),
		Description:    c.String("description"),
		QuestionsCount: c.Int("questions-count"),
		TimeLimit:      c.Int("time-limit"),
		Audience:       models.TestAudience(c.String("audience")),
		MediaRoot:      mediaRoot,
	})
	if err != nil {
		return err
	}
	report.Errors = append(rowErrs, report.Errors...)

	printReport(c, report)
	return nil
}

func printReport(c *cli.Context, report *models.ImportReport) {
	out := c.App.Writer
	if report.TestCreated {
		fmt.Fprintf(out, "Created test %q (id %d)\n", report.TestTitle, report.TestID)
	} else {
		fmt.Fprintf(out, "Adding to existing test %q (id %d)\n", report.TestTitle, report.TestID)
	}
	for _, name := range report.MissingImages {
		fmt.Fprintf(out, "warning: image %s not found\n", name)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(out, "line %d: %s\n", e.Line, e.Error)
	}
	fmt.Fprintf(out, "Imported %d questions, skipped %d\n", report.Created, report.Skipped)
}
