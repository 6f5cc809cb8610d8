// Package dbtest opens isolated SQLite databases carrying the application
// schema so repository and service tests run without Postgres.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propscout/propscout-backend/pkg/db/models"
	"github.com/propscout/propscout-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT,
		role TEXT NOT NULL CHECK (role IN ('CLIENT', 'SCOUT', 'ADMIN')),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		last_login_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE properties (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT,
		country TEXT NOT NULL DEFAULT 'NG',
		lat REAL,
		lng REAL,
		property_type TEXT,
		notes TEXT,
		visit_count INTEGER NOT NULL DEFAULT 0,
		last_visit_date DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		plan TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'ACTIVE', 'EXPIRED')),
		amount_kobo INTEGER NOT NULL,
		payment_reference TEXT,
		paystack_reference TEXT,
		current_period_start DATETIME NOT NULL,
		current_period_end DATETIME NOT NULL,
		activated_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX idx_subscriptions_payment_reference ON subscriptions (payment_reference) WHERE payment_reference IS NOT NULL`,
	`CREATE TABLE visit_requests (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		requested_by TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'ASSIGNED', 'COMPLETED')),
		source TEXT NOT NULL,
		scheduled_date DATETIME NOT NULL,
		instructions TEXT,
		assigned_scout_id TEXT,
		claimed_at DATETIME,
		claim_expires_at DATETIME,
		completed_at DATETIME,
		client_rating INTEGER,
		payment_reference TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX idx_visit_requests_payment_reference ON visit_requests (payment_reference) WHERE payment_reference IS NOT NULL`,
	`CREATE TABLE media (
		id TEXT PRIMARY KEY,
		visit_request_id TEXT NOT NULL,
		uploaded_by TEXT NOT NULL,
		url TEXT NOT NULL,
		object_key TEXT NOT NULL UNIQUE,
		mime_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE disputes (
		id TEXT PRIMARY KEY,
		visit_request_id TEXT NOT NULL,
		reporter_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL CHECK (status IN ('OPEN', 'IN_REVIEW', 'RESOLVED', 'CLOSED')),
		resolution TEXT,
		resolved_by TEXT,
		resolved_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX idx_disputes_visit_reporter ON disputes (visit_request_id, reporter_id)`,
	`CREATE TABLE scout_earnings (
		id TEXT PRIMARY KEY,
		scout_id TEXT NOT NULL,
		visit_request_id TEXT NOT NULL UNIQUE,
		amount_kobo INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE achievements (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		threshold INTEGER NOT NULL
	)`,
	`CREATE TABLE scout_achievements (
		id TEXT PRIMARY KEY,
		scout_id TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		awarded_at DATETIME NOT NULL,
		UNIQUE (scout_id, achievement_id)
	)`,
	`CREATE TABLE activity_feed (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		property_id TEXT,
		visit_request_id TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE payment_webhook_events (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		event TEXT NOT NULL,
		reference TEXT NOT NULL,
		payload TEXT,
		created_at DATETIME NOT NULL,
		UNIQUE (provider, event, reference)
	)`,
}

// Achievements mirrors the catalogue seeded by the Postgres migrations.
var Achievements = []models.Achievement{
	{Code: "FIRST_VISIT", Name: "First Visit", Description: "Completed your first property visit", Threshold: 1},
	{Code: "TEN_VISITS", Name: "Seasoned Scout", Description: "Completed ten property visits", Threshold: 10},
	{Code: "FIFTY_VISITS", Name: "Veteran Scout", Description: "Completed fifty property visits", Threshold: 50},
}

// Open returns a private in-memory database with the full schema. A single
// connection is used so every statement, including concurrent ones, sees the
// same database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	for _, a := range Achievements {
		a.ID = uuid.New()
		if err := conn.Create(&a).Error; err != nil {
			t.Fatalf("seed achievements: %v", err)
		}
	}
	return conn
}

// CreateUser inserts a user with the given role.
func CreateUser(t testing.TB, conn *gorm.DB, role enums.Role) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id.String()[:8]),
		PasswordHash: "not-a-real-hash",
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		IsActive:     true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateProperty inserts a property owned by ownerID.
func CreateProperty(t testing.TB, conn *gorm.DB, ownerID uuid.UUID) models.Property {
	t.Helper()
	property := models.Property{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    "Lekki Duplex",
		Address: "12 Admiralty Way",
		City:    "Lagos",
		Country: "NG",
	}
	if err := conn.Create(&property).Error; err != nil {
		t.Fatalf("create property: %v", err)
	}
	return property
}
