package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mhutchins/coachwork/internal/config"
	"github.com/mhutchins/coachwork/internal/relationship"
	"github.com/mhutchins/coachwork/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo professional, participant, package and relationship",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Check if seed has already run.
	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("checking existing users: %w", err)
	}
	if count > 0 {
		slog.Info("demo data already exists, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	var professionalID string
	err = pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, email_verified, phone_verified)
		 VALUES ($1, $2, $3, $4, $5, true, true) RETURNING id`,
		"coach@example.com", string(hash), "Dana", "Coach", user.RoleProfessional,
	).Scan(&professionalID)
	if err != nil {
		return fmt.Errorf("creating demo professional: %w", err)
	}
	slog.Info("created demo professional", "id", professionalID)

	var participantID string
	err = pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, email_verified, phone_verified)
		 VALUES ($1, $2, $3, $4, $5, true, true) RETURNING id`,
		"client@example.com", string(hash), "Sam", "Client", user.RoleParticipant,
	).Scan(&participantID)
	if err != nil {
		return fmt.Errorf("creating demo participant: %w", err)
	}
	slog.Info("created demo participant", "id", participantID)

	var packageID string
	err = pool.QueryRow(ctx,
		`INSERT INTO packages (professional_id, title) VALUES ($1, $2) RETURNING id`,
		professionalID, "Career Coaching (8 sessions)",
	).Scan(&packageID)
	if err != nil {
		return fmt.Errorf("creating demo package: %w", err)
	}
	slog.Info("created demo package", "id", packageID)

	relationshipStore := relationship.NewStore(pool)
	rel, err := relationshipStore.Insert(ctx, pool, professionalID, participantID, packageID)
	if err != nil {
		return fmt.Errorf("creating demo relationship: %w", err)
	}
	slog.Info("created demo relationship", "id", rel.ID)

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Professional:  coach@example.com (%s)\n", professionalID)
	fmt.Printf("Participant:   client@example.com (%s)\n", participantID)
	fmt.Printf("Package:       %s\n", packageID)
	fmt.Printf("Relationship:  %s\n", rel.ID)
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -H 'X-User-ID: %s' -H 'X-User-Role: professional' http://localhost:8080/api/v1/relationships\n", professionalID)
	fmt.Printf("  curl -H 'X-User-ID: %s' -H 'X-User-Role: professional' -d '{\"coaching_relationship_id\":\"%s\",\"title\":\"Update your resume\"}' http://localhost:8080/api/v1/tasks\n", professionalID, rel.ID)

	return nil
}
