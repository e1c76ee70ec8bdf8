// Command seed provisions a staff or admin account from the command line.
// It is the bootstrap path for the first admin, after which accounts can be
// created over the API.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/marksvc/marks-api/internal/models"
	"github.com/marksvc/marks-api/internal/repository"
	"github.com/marksvc/marks-api/internal/service"
	"github.com/marksvc/marks-api/pkg/config"
	"github.com/marksvc/marks-api/pkg/database"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password (min 8 chars)")
	role := flag.String("role", string(models.RoleStaff), "account role: staff or admin")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		log.Fatal("email and password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	authSvc := service.NewAuthService(
		repository.NewStaffRepository(db),
		validator.New(),
		zap.NewNop(),
		service.AuthConfig{TokenSecret: cfg.JWT.Secret, TokenExpiry: cfg.JWT.Expiration, Issuer: "marks-api"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	staff, err := authSvc.CreateStaff(ctx, models.CreateStaffRequest{
		Email:    *email,
		Password: *password,
		Role:     models.Role(*role),
	})
	if err != nil {
		log.Fatalf("failed to create account: %v", err)
	}

	log.Printf("created %s account %s (id=%s)", staff.Role, staff.Email, staff.ID)
}
