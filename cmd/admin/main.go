// Command admin runs operator tasks against the storefront database.
//
// Usage:
//
//	admin create-admin -name NAME -email EMAIL -password PASSWORD
//	admin token -email EMAIL
//	admin import-coupons PATH
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const usage = `usage: admin <command> [flags]

commands:
  create-admin    create an administrator account
  token           print a bearer token for an existing account
  import-coupons  upsert a gzipped JSON-lines coupon catalogue
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// command runs one admin task against a migrated database.
type command func(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, args []string, logger zerolog.Logger) error

var commands = map[string]command{
	"create-admin":   createAdmin,
	"token":          issueToken,
	"import-coupons": importCoupons,
}

func run(name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger, "storefront-admin")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return cmd(ctx, pool, cfg, args, logger)
}

func createAdmin(ctx context.Context, pool *pgxpool.Pool, _ *config.Config, args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	name := fs.String("name", "Administrator", "display name")
	email := fs.String("email", "", "login email (required)")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "password, defaults to $ADMIN_PASSWORD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("create-admin needs -email and -password")
	}

	users := service.NewUserService(repository.NewUserRepository(pool, logger), logger)
	user, err := users.Create(ctx, &model.CreateUserRequest{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		if de, ok := model.AsDomainError(err); ok {
			return fmt.Errorf("%s: %s", de.Code, de.Message)
		}
		return err
	}

	fmt.Printf("created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func issueToken(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	email := fs.String("email", "", "account email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("token needs -email")
	}

	user, err := repository.NewUserRepository(pool, logger).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("no user with email %s", *email)
	}
	if !user.IsActive {
		return fmt.Errorf("user %s is disabled", user.Email)
	}

	token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL).Issue(user.ID, user.Role)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func importCoupons(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, args []string, logger zerolog.Logger) error {
	if len(args) != 1 {
		return errors.New("import-coupons needs exactly one catalogue path")
	}

	var s3Loader coupon.Loader
	if cfg.S3.Enabled {
		l, err := coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 loader: %w", err)
		}
		s3Loader = l
	}
	loader := coupon.NewFallbackLoader(s3Loader, coupon.NewFileLoader(logger), cfg.S3.Prefix, cfg.S3.Enabled, logger)

	importer := coupon.NewImporter(loader, repository.NewCouponRepository(pool, logger), logger)
	result, err := importer.Import(ctx, args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("inserted %d, updated %d, skipped %d\n", result.Inserted, result.Updated, result.Skipped)
	return nil
}
