package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/goatbot786-md/goattecc-bot/pkg/env"
)

// TenantConfig is the per-number behavior profile. A fresh record starts
// from the process defaults and is mutated only by owner commands.
type TenantConfig struct {
	WorkMode       string `json:"work_mode"` // public, private, inbox, groups
	AutoViewStatus bool   `json:"auto_view_status"`
	AutoLikeStatus bool   `json:"auto_like_status"`
	AutoRecording  bool   `json:"auto_recording"`
	AntiCall       bool   `json:"anti_call"`
}

// CredentialRecord binds a phone number to its transport credentials. The
// raw key material lives in the whatsmeow datastore; DeviceJID is the key
// into it, which is all the gateway needs to resume a session.
type CredentialRecord struct {
	Number    string
	DeviceJID string
	Config    TenantConfig
	SudoUsers []string
	BanList   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrNotFound = errors.New("store: record not found")

type Store struct {
	db       *sql.DB
	driver   string
	dsn      string
	defaults TenantConfig
}

// Open connects to the Postgres datastore named by WHATSAPP_DATASTORE_TYPE
// and WHATSAPP_DATASTORE_URI and bootstraps the gateway schema.
func Open(ctx context.Context, defaults TenantConfig) (*Store, error) {
	dbType, err := env.GetEnvString("WHATSAPP_DATASTORE_TYPE")
	if err != nil {
		return nil, fmt.Errorf("parse WHATSAPP_DATASTORE_TYPE: %w", err)
	}
	dbURI, err := env.GetEnvString("WHATSAPP_DATASTORE_URI")
	if err != nil {
		return nil, fmt.Errorf("parse WHATSAPP_DATASTORE_URI: %w", err)
	}

	driver := normalizeDriver(dbType)
	if driver != "pgx" {
		return nil, fmt.Errorf("unsupported datastore driver %s", driver)
	}
	dsn := normalizeDSN(driver, dbURI)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)
	if err = db.PingContext(ctx); err != nil {
		return nil, err
	}

	s := &Store{db: db, driver: driver, dsn: dsn, defaults: defaults}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bot_sessions (
			number TEXT PRIMARY KEY,
			device_jid TEXT,
			config JSONB NOT NULL DEFAULT '{}'::jsonb,
			sudo_users JSONB NOT NULL DEFAULT '[]'::jsonb,
			banned_users JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bot_numbers (
			number TEXT PRIMARY KEY,
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_numbers_active ON bot_numbers(number) WHERE active`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Driver() string { return s.driver }
func (s *Store) DSN() string    { return s.dsn }

func (s *Store) Close() error { return s.db.Close() }

// UpsertCredential is the sole credential write path. It is idempotent:
// re-running it for the same number only refreshes device_jid/updated_at.
func (s *Store) UpsertCredential(ctx context.Context, number string, deviceJID string) error {
	cfg, err := json.Marshal(s.defaults)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bot_sessions (number, device_jid, config, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW(), NOW())
		ON CONFLICT (number) DO UPDATE
		SET device_jid = EXCLUDED.device_jid,
		    updated_at = NOW()
	`, number, deviceJID, string(cfg))
	return err
}

func (s *Store) Credential(ctx context.Context, number string) (*CredentialRecord, error) {
	var (
		rec       CredentialRecord
		deviceJID sql.NullString
		rawConfig []byte
		rawSudo   []byte
		rawBanned []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT number, device_jid, config, sudo_users, banned_users, created_at, updated_at
		FROM bot_sessions WHERE number = $1
	`, number).Scan(&rec.Number, &deviceJID, &rawConfig, &rawSudo, &rawBanned, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.DeviceJID = deviceJID.String
	rec.Config = s.defaults
	if len(rawConfig) > 0 {
		_ = json.Unmarshal(rawConfig, &rec.Config)
	}
	_ = json.Unmarshal(rawSudo, &rec.SudoUsers)
	_ = json.Unmarshal(rawBanned, &rec.BanList)
	return &rec, nil
}

func (s *Store) Config(ctx context.Context, number string) (TenantConfig, error) {
	rec, err := s.Credential(ctx, number)
	if errors.Is(err, ErrNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return s.defaults, err
	}
	return rec.Config, nil
}

func (s *Store) UpdateConfig(ctx context.Context, number string, cfg TenantConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE bot_sessions SET config = $2::jsonb, updated_at = NOW() WHERE number = $1
	`, number, string(raw))
	return err
}

func (s *Store) MarkActive(ctx context.Context, number string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_numbers (number, active) VALUES ($1, TRUE)
		ON CONFLICT (number) DO UPDATE SET active = TRUE
	`, number)
	return err
}

func (s *Store) ActiveNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT number FROM bot_numbers WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		numbers = append(numbers, number)
	}
	return numbers, rows.Err()
}

func (s *Store) SudoList(ctx context.Context, number string) ([]string, error) {
	rec, err := s.Credential(ctx, number)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.SudoUsers, nil
}

func (s *Store) SetSudoList(ctx context.Context, number string, list []string) error {
	return s.setJSONList(ctx, number, "sudo_users", list)
}

func (s *Store) BanList(ctx context.Context, number string) ([]string, error) {
	rec, err := s.Credential(ctx, number)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.BanList, nil
}

func (s *Store) SetBanList(ctx context.Context, number string, list []string) error {
	return s.setJSONList(ctx, number, "banned_users", list)
}

func (s *Store) setJSONList(ctx context.Context, number string, column string, list []string) error {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	// column comes from the two fixed call sites above, never from input
	_, err = s.db.ExecContext(ctx,
		`UPDATE bot_sessions SET `+column+` = $2::jsonb, updated_at = NOW() WHERE number = $1`,
		number, string(raw))
	return err
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgresql", "postgres", "pgx":
		return "pgx"
	default:
		return strings.ToLower(driver)
	}
}

func normalizeDSN(driver string, dsn string) string {
	if driver != "pgx" {
		return dsn
	}
	appendParam := func(current string, key string, value string) string {
		if strings.Contains(current, key+"=") {
			return current
		}
		separator := "?"
		if strings.Contains(current, "?") {
			if strings.HasSuffix(current, "?") || strings.HasSuffix(current, "&") {
				separator = ""
			} else {
				separator = "&"
			}
		}
		return current + separator + key + "=" + value
	}
	dsn = appendParam(dsn, "prefer_simple_protocol", "true")
	dsn = appendParam(dsn, "statement_cache_capacity", "0")
	dsn = appendParam(dsn, "default_query_exec_mode", "simple_protocol")
	return dsn
}
