package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Records is a SQLite-backed implementation of the records interface
type Records struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure Records implements the interface
var _ storage.Records = (*Records)(nil)

// Open opens (creating if missing) the database at path and applies migrations
func Open(path string, logger *slog.Logger) (*Records, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	r := &Records{db: db, logger: logger.With(slog.String("component", "records"))}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database
func (r *Records) Close() error {
	return r.db.Close()
}

// migrate applies embedded migrations in lexical order, recording each in _migrations
func (r *Records) migrate() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		var done int
		err := r.db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		tx, err := r.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		r.logger.Info("migration applied", slog.String("migration", name))
	}
	return nil
}

// Player operations

func (r *Records) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	p := model.Player{ID: id, Tickets: make(map[model.Mode]int)}
	err := r.db.QueryRowContext(ctx, `
        SELECT display_name, rating, wins, losses, draws, created_at, updated_at
        FROM players WHERE id=?`, string(id),
	).Scan(&p.DisplayName, &p.Rating, &p.Wins, &p.Losses, &p.Draws, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT mode, count FROM player_tickets WHERE player_id=?`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var mode string
		var count int
		if err := rows.Scan(&mode, &count); err != nil {
			return nil, err
		}
		p.Tickets[model.Mode(mode)] = count
	}
	return &p, rows.Err()
}

func (r *Records) SavePlayer(ctx context.Context, player *model.Player) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO players (id, display_name, rating, wins, losses, draws, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            display_name=excluded.display_name,
            rating=excluded.rating,
            wins=excluded.wins,
            losses=excluded.losses,
            draws=excluded.draws,
            updated_at=excluded.updated_at`,
		string(player.ID), player.DisplayName, player.Rating,
		player.Wins, player.Losses, player.Draws, player.CreatedAt, player.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_tickets WHERE player_id=?`, string(player.ID)); err != nil {
		return err
	}
	for mode, count := range player.Tickets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_tickets (player_id, mode, count) VALUES (?, ?, ?)`,
			string(player.ID), string(mode), count,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Records) playerExists(ctx context.Context, id model.PlayerID) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM players WHERE id=?`, string(id)).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Records) ConsumeTicket(ctx context.Context, id model.PlayerID, mode model.Mode) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE player_tickets SET count = count - 1
        WHERE player_id=? AND mode=? AND count > 0`, string(id), string(mode),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	exists, err := r.playerExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrPlayerNotFound
	}
	return model.ErrNoTicket
}

func (r *Records) RefundTicket(ctx context.Context, id model.PlayerID, mode model.Mode) error {
	exists, err := r.playerExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrPlayerNotFound
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO player_tickets (player_id, mode, count) VALUES (?, ?, 1)
        ON CONFLICT(player_id, mode) DO UPDATE SET count = count + 1`,
		string(id), string(mode),
	)
	return err
}

// Game record operations

const recordColumns = `session_id, mode, black, white, winner, reason, score, moves, sgf, rated, started_at, finished_at`

func (r *Records) SaveGameRecord(ctx context.Context, record *model.GameRecord) error {
	score, err := json.Marshal(record.Score)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO game_records (`+recordColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(record.SessionID), string(record.Mode), string(record.Black), string(record.White),
		record.Winner.String(), string(record.Reason), string(score), record.Moves, record.SGF,
		record.Rated, record.StartedAt, record.FinishedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.GameRecord, error) {
	var (
		rec                                   model.GameRecord
		sessionID, mode, black, white, winner string
		reason, score                         string
	)
	err := row.Scan(&sessionID, &mode, &black, &white, &winner, &reason, &score,
		&rec.Moves, &rec.SGF, &rec.Rated, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return nil, err
	}

	rec.SessionID = model.SessionID(sessionID)
	rec.Mode = model.Mode(mode)
	rec.Black = model.PlayerID(black)
	rec.White = model.PlayerID(white)
	rec.Reason = model.EndReason(reason)
	if rec.Winner, err = model.ParseColor(winner); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(score), &rec.Score); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Records) GetGameRecord(ctx context.Context, id model.SessionID) (*model.GameRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM game_records WHERE session_id=?`, string(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	return rec, err
}

func (r *Records) ListGameRecords(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+recordColumns+` FROM game_records
        WHERE black=? OR white=?
        ORDER BY finished_at DESC
        LIMIT ?`, string(playerID), string(playerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.GameRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
