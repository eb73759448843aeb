// Command academic-cli runs eligibility checks and agenda builds directly
// against the academic database and mints tokens for operators.
//
//	academic-cli check  -student <id> -subject <id>
//	academic-cli agenda -user <id> [-from YYYY-MM-DD] [-to YYYY-MM-DD]
//	academic-cli token  -email <address> [-ttl 1h]
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/service"
	"github.com/noah-isme/campus-api/pkg/config"
	"github.com/noah-isme/campus-api/pkg/database"
	"github.com/noah-isme/campus-api/pkg/logger"
)

func usage() int {
	fmt.Fprintln(os.Stderr, "usage: academic-cli <check|agenda|token> [flags]")
	return 2
}

func main() {
	os.Exit(run(os.Args[1:]))
}

var commands = map[string]bool{"check": true, "agenda": true, "token": true}

func run(args []string) int {
	if len(args) < 1 || !commands[args[0]] {
		return usage()
	}

	cfg, err := config.Load()
	if err != nil {
		color.Red("failed to load config: %v", err)
		return 1
	}

	logr, err := logger.New(cfg)
	if err != nil {
		color.Red("failed to init logger: %v", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Error("failed to connect database", zap.Error(err))
		color.Red("failed to connect database: %v", err)
		return 1
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "check":
		err = runCheck(ctx, db, logr, rest)
	case "agenda":
		err = runAgenda(ctx, db, cfg, logr, rest)
	case "token":
		err = runToken(ctx, db, cfg, logr, rest)
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		logr.Error("command failed", zap.String("command", cmd), zap.Error(err))
		color.Red("%s failed: %v", cmd, err)
		return 1
	}
	return 0
}

func runCheck(ctx context.Context, db *sqlx.DB, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	studentID := fs.String("student", "", "student id")
	subjectID := fs.String("subject", "", "subject id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *studentID == "" || *subjectID == "" {
		return fmt.Errorf("-student and -subject are required")
	}

	subjects := repository.NewSubjectRepository(db)
	correlatives := service.NewCorrelativesService(
		repository.NewPrerequisiteRepository(db),
		subjects,
		subjects,
		repository.NewEnrollmentRepository(db),
		repository.NewUserRepository(db),
		database.NewTransactor(db),
		nil, nil, nil, logr.Named("correlatives"),
	)
	report, err := correlatives.CheckAll(ctx, *studentID, *subjectID)
	if err != nil {
		return err
	}
	renderReport(os.Stdout, *subjectID, report)
	return nil
}

func runAgenda(ctx context.Context, db *sqlx.DB, cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("agenda", flag.ContinueOnError)
	userID := fs.String("user", "", "user id")
	from := fs.String("from", "", "first day (YYYY-MM-DD)")
	to := fs.String("to", "", "last day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return fmt.Errorf("-user is required")
	}

	blocks := repository.NewTimeBlockRepository(db)
	agenda := service.NewAgendaService(
		repository.NewUserRepository(db),
		repository.NewEnrollmentRepository(db),
		blocks,
		service.AgendaConfig{
			Location:    cfg.Academic.Location(),
			DefaultDays: cfg.Academic.AgendaDefaultDays,
			MaxDays:     cfg.Academic.AgendaMaxDays,
		},
		logr.Named("agenda"),
	)

	query := models.AgendaQuery{UserID: *userID}
	var err error
	if query.From, err = parseDate(*from, agenda.Location()); err != nil {
		return err
	}
	if query.To, err = parseDate(*to, agenda.Location()); err != nil {
		return err
	}

	days, err := agenda.BuildAgenda(ctx, query)
	if err != nil {
		return err
	}
	renderAgenda(os.Stdout, days)
	return nil
}

func runToken(ctx context.Context, db *sqlx.DB, cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("-email is required")
	}

	user, err := repository.NewUserRepository(db).FindByEmail(ctx, *email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no user with email %q", *email)
		}
		return err
	}
	auth := service.NewAuthService(service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		Audience:    cfg.JWT.Audience,
		TokenExpiry: *ttl,
	}, logr.Named("auth"))
	token, expires, err := auth.IssueToken(user)
	if err != nil {
		return err
	}
	color.Cyan("%s (%s) token valid until %s", user.FullName, user.Role, expires.Format(time.RFC3339))
	fmt.Println(token)
	return nil
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}
