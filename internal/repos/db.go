package repos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"salesdesk/internal/domain"
)

// OpenDB connects to sqlite (default) or postgres and runs migrations.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = "sqlite"
	}
	if driver == "sqlite" {
		dsn = SQLiteDSN(dsn)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	switch driver {
	case "sqlite":
		// One connection: writers serialize and :memory: stays a single database.
		db.SetMaxOpenConns(1)
	case "postgres":
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// sqlitePragmas run on every connection the driver opens, so a reopened
// connection keeps them.
var sqlitePragmas = []string{"busy_timeout(5000)", "foreign_keys(1)"}

// SQLiteDSN appends the connection pragmas to dsn unless it already sets them.
func SQLiteDSN(dsn string) string {
	base, query, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(query)
	if err != nil {
		q = url.Values{}
	}
	have := map[string]bool{}
	for _, p := range q["_pragma"] {
		name, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(p)), "(")
		have[name] = true
	}
	for _, p := range sqlitePragmas {
		name, _, _ := strings.Cut(p, "(")
		if !have[name] {
			q.Add("_pragma", p)
		}
	}
	return base + "?" + q.Encode()
}

// SeedAdmin creates the first administrator when no admin exists yet.
// Safe to run on every start.
func SeedAdmin(ctx context.Context, db *sqlx.DB, email, password string, cost int) error {
	if password == "" {
		log.Println("[seed] ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	users := NewUserRepo(db)
	n, err := users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	now := time.Now().UTC()
	err = users.Create(ctx, &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      "Administrator",
		Hash:      string(hash),
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	if err == nil {
		log.Printf("[seed] created admin %s", email)
	}
	return err
}
