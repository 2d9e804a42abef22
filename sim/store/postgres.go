package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/demand-sim/demand-sim/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
  map_name      TEXT        NOT NULL,
  scenario_name TEXT        NOT NULL,
  blob          BYTEA       NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (map_name, scenario_name)
)`

// Postgres stores scenario blobs in the scenarios table.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// Open connects through the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// NewPostgres pings db and makes sure the table exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create scenarios table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Save(ctx context.Context, s *sim.Scenario) error {
	if err := validateKey(s.MapName, s.ScenarioName); err != nil {
		return fmt.Errorf("saving scenario: %w", err)
	}
	var buf bytes.Buffer
	if err := sim.EncodeScenario(&buf, s); err != nil {
		return err
	}
	q := `
INSERT INTO scenarios (map_name, scenario_name, blob, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (map_name, scenario_name)
DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, q, s.MapName, s.ScenarioName, buf.Bytes()); err != nil {
		return fmt.Errorf("upsert scenario %s/%s: %w", s.MapName, s.ScenarioName, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, mapName, scenarioName string) (*sim.Scenario, error) {
	q := `SELECT blob FROM scenarios WHERE map_name = $1 AND scenario_name = $2`
	var blob []byte
	if err := p.db.QueryRowContext(ctx, q, mapName, scenarioName).Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", mapName, scenarioName, ErrNotFound)
		}
		return nil, fmt.Errorf("query scenario %s/%s: %w", mapName, scenarioName, err)
	}
	s, err := sim.DecodeScenario(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("loading scenario %s/%s: %w", mapName, scenarioName, err)
	}
	return s, nil
}

func (p *Postgres) List(ctx context.Context, mapName string) ([]string, error) {
	q := `SELECT scenario_name FROM scenarios WHERE map_name = $1 ORDER BY scenario_name`
	rows, err := p.db.QueryContext(ctx, q, mapName)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
