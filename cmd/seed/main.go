package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuspark/parking-reservation/internal/db"
	"github.com/campuspark/parking-reservation/internal/slot"
	"github.com/campuspark/parking-reservation/internal/user"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	studentCount := 200
	if v := os.Getenv("SEED_STUDENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			studentCount = n
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	slotRepo := slot.NewPgRepository(pool)
	userRepo := user.NewPgRepository(pool)

	if err := seedSlots(context.Background(), slotRepo); err != nil {
		log.Fatalf("seed slots: %v", err)
	}
	if err := seedAdmin(context.Background(), pool); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// Top up to the requested student count rather than piling on every run.
	existing, err := userRepo.CountByRole(context.Background(), user.RoleUser)
	if err != nil {
		log.Fatalf("count students: %v", err)
	}
	if existing >= studentCount {
		log.Printf("students already seeded: %d", existing)
	} else if err := seedStudents(context.Background(), pool, studentCount-existing); err != nil {
		log.Fatalf("seed students: %v", err)
	}

	log.Println("seed complete")
}

func seedSlots(ctx context.Context, repo slot.Repository) error {
	slots := []slot.Slot{
		{Name: "P01", Location: "CCIS Building - Front Row, Left Side"},
		{Name: "P02", Location: "CCIS Building - Front Row, Left Center"},
		{Name: "P03", Location: "CCIS Building - Front Row, Center"},
		{Name: "P04", Location: "CCIS Building - Front Row, Right Center"},
		{Name: "P05", Location: "CCIS Building - Front Row, Right Side"},
		{Name: "P06", Location: "CCIS Building - Back Row, Left Side"},
		{Name: "P07", Location: "CCIS Building - Back Row, Left Center"},
		{Name: "P08", Location: "CCIS Building - Back Row, Center"},
		{Name: "P09", Location: "CCIS Building - Back Row, Right Center"},
		{Name: "P10", Location: "CCIS Building - Back Row, Right Side"},
	}

	log.Printf("seeding %d parking slots", len(slots))

	if err := slot.EnsureCatalog(ctx, repo, slots); err != nil {
		return err
	}

	log.Println("parking slots seeded")
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := user.HashPassword("admin123")
	if err != nil {
		return err
	}

	// Default credentials: username=admin, password=admin123
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, username, full_name, password_hash, role, created_at)
		VALUES ($1, 'admin', 'System Administrator', $2, 'admin', now())
		ON CONFLICT (username) DO NOTHING
	`, uuid.New(), hash)
	if err != nil {
		return err
	}

	log.Println("default admin ensured")
	return nil
}

func seedStudents(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d students", count)

	const batchSize = 100

	// All seeded students share one hash, hashing per row is pointlessly slow.
	hash, err := user.HashPassword("student123")
	if err != nil {
		return err
	}

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			username := gofakeit.Numerify("2###-####")
			email := gofakeit.Username() + strconv.Itoa(i) + "@student.example.edu"

			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, username, full_name, email, password_hash, role, created_at)
				VALUES ($1, $2, $3, $4, $5, 'user', now())
				ON CONFLICT (username) DO NOTHING
			`, id, username, name, email, hash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("students seeded: %d/%d", end, count)
	}

	log.Println("students seeded")
	return nil
}
