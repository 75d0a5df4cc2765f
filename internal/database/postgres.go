package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Chat rooms. Direct-message rooms carry a deterministic pair key
		// (sorted "userA:userB") so concurrent lookup-or-create cannot
		// produce two rooms for the same pair: the second INSERT hits the
		// unique constraint and the caller re-fetches instead.
		`CREATE TABLE IF NOT EXISTS chat_rooms (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			name VARCHAR(255) NOT NULL DEFAULT '',
			is_direct_message BOOLEAN NOT NULL DEFAULT FALSE,
			direct_pair_key VARCHAR(80) UNIQUE
		)`,

		// Room memberships (many-to-many, one row per user per room)
		`CREATE TABLE IF NOT EXISTS chat_room_members (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			room_id UUID NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(20) NOT NULL DEFAULT 'member' CHECK (role IN ('member', 'admin')),
			joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(room_id, user_id)
		)`,

		// Messages. Content is sanitized before insert and immutable after.
		// read/read_at transition false→true exactly once and never revert.
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			room_id UUID NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL DEFAULT '',
			attachment_id VARCHAR(255),
			attachment_name VARCHAR(255),
			attachment_type VARCHAR(100),
			attachment_size BIGINT,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMP
		)`,

		// Notifications referencing a target by (kind, id) pair
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			target_kind VARCHAR(20) NOT NULL CHECK (target_kind IN ('room', 'message')),
			target_id UUID NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			read BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_rooms_direct_pair_key ON chat_rooms(direct_pair_key)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_room_members_room_id ON chat_room_members(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_room_members_user_id ON chat_room_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_room_id ON chat_messages(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_room_created ON chat_messages(room_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_room_unread ON chat_messages(room_id, read, sender_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, read)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
