package storage

// sqlite.go: persistencia local del scanner y del order client.
//
// Estrategia:
//   - `scans`: resumen ligero por ciclo (total, en vivo, mejor score). Siempre 1 fila.
//   - `live_events`: UNA fila por mercado (UPSERT) con el pico de score visto.
//   - Cache en memoria: evita writes si el estado no cambió (> 5% en score,
//     o cambio de categoría/en vivo).
//   - `orders`: journal append-only de colocaciones y cancelaciones.
//   - Prune automático al arrancar: scans > 30d, live_events no vistos en 14d.
//
// Los tiempos se guardan como unix millis (INTEGER) en UTC.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

const schema = `
-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS scans (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    scanned_at INTEGER NOT NULL,
    total      INTEGER NOT NULL DEFAULT 0,
    live       INTEGER NOT NULL DEFAULT 0,
    best_score REAL    NOT NULL DEFAULT 0
);

-- Una fila por mercado, sin duplicados
CREATE TABLE IF NOT EXISTS live_events (
    market_id        TEXT PRIMARY KEY,
    condition_id     TEXT,
    question         TEXT,
    slug             TEXT,
    category         TEXT    NOT NULL,
    betting_score    REAL    NOT NULL DEFAULT 0,
    spread           REAL    NOT NULL DEFAULT 0,
    volume           REAL    NOT NULL DEFAULT 0,
    liquidity        REAL    NOT NULL DEFAULT 0,
    is_live          INTEGER NOT NULL DEFAULT 0,
    has_live_updates INTEGER NOT NULL DEFAULT 0,
    end_date         INTEGER,
    first_seen       INTEGER NOT NULL,
    last_seen        INTEGER NOT NULL,
    peak_score       REAL    NOT NULL DEFAULT 0
);

-- Journal de órdenes: una fila por colocación o cancelación
CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    kind        TEXT    NOT NULL,
    order_id    TEXT    NOT NULL,
    order_hash  TEXT,
    token_id    TEXT,
    side        TEXT,
    price       REAL    NOT NULL DEFAULT 0,
    size        REAL    NOT NULL DEFAULT 0,
    status      TEXT,
    success     INTEGER NOT NULL DEFAULT 1,
    message     TEXT,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_at     ON scans(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_live_cat     ON live_events(category);
CREATE INDEX IF NOT EXISTS idx_live_last    ON live_events(last_seen DESC);
CREATE INDEX IF NOT EXISTS idx_live_score   ON live_events(betting_score DESC);
CREATE INDEX IF NOT EXISTS idx_orders_order ON orders(order_id);
CREATE INDEX IF NOT EXISTS idx_orders_at    ON orders(recorded_at DESC);
`

const (
	retentionScans  = 30 * 24 * time.Hour // scans: 30 días
	retentionEvents = 14 * 24 * time.Hour // eventos: 14 días
	scoreChangePct  = 0.05                // 5% de cambio en score → reescribir

	kindPlacement = "placement"
	kindCancel    = "cancel"
)

// cachedState es el snapshot del último estado guardado de un mercado.
type cachedState struct {
	category string
	score    float64
	isLive   bool
}

// SQLiteStorage implementa ports.LiveEventStorage y ports.OrderJournal
// usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]cachedState // marketID → estado guardado
	mu    sync.Mutex
	now   func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]cachedState),
		now:   time.Now,
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SaveScan persiste el resumen del ciclo y hace upsert de los eventos que
// cambiaron respecto al ciclo anterior (usando caché en memoria).
func (s *SQLiteStorage) SaveScan(ctx context.Context, events []domain.LiveEvent) error {
	if len(events) == 0 {
		return nil
	}

	now := s.now().UTC()

	// 1. Resumen del ciclo
	live, best := scanSummary(events)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (scanned_at, total, live, best_score) VALUES (?, ?, ?, ?)`,
		now.UnixMilli(), len(events), live, best,
	); err != nil {
		return fmt.Errorf("storage.SaveScan: insert scan: %w", err)
	}

	// 2. Upsert de los que cambiaron
	toWrite := s.filterChanged(events)
	if len(toWrite) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO live_events
			(market_id, condition_id, question, slug, category, betting_score,
			 spread, volume, liquidity, is_live, has_live_updates, end_date,
			 first_seen, last_seen, peak_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market_id) DO UPDATE SET
			question         = excluded.question,
			category         = excluded.category,
			betting_score    = excluded.betting_score,
			spread           = excluded.spread,
			volume           = excluded.volume,
			liquidity        = excluded.liquidity,
			is_live          = excluded.is_live,
			has_live_updates = excluded.has_live_updates,
			end_date         = excluded.end_date,
			last_seen        = excluded.last_seen,
			peak_score       = MAX(peak_score, excluded.betting_score)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveScan: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range toWrite {
		m := ev.Market
		var endDate sql.NullInt64
		if !m.EndDate.IsZero() {
			endDate = sql.NullInt64{Int64: m.EndDate.UTC().UnixMilli(), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			m.ID,
			m.ConditionID,
			m.Question,
			m.Slug,
			ev.Category,
			ev.BettingScore,
			ev.Spread,
			m.Volume,
			m.Liquidity,
			boolInt(ev.IsLive),
			boolInt(ev.HasLiveUpdates),
			endDate,
			now.UnixMilli(), // first_seen: ignorado en ON CONFLICT
			now.UnixMilli(),
			ev.BettingScore,
		); err != nil {
			return fmt.Errorf("storage.SaveScan: upsert %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveScan: commit: %w", err)
	}
	return nil
}

// GetHistory devuelve los eventos cuyo last_seen está en el rango dado,
// ordenados por betting score desc. HoursToClose se calcula respecto a last_seen.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.LiveEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, condition_id, question, slug, category,
		       betting_score, spread, volume, liquidity, is_live,
		       has_live_updates, end_date, last_seen
		FROM live_events
		WHERE last_seen BETWEEN ? AND ?
		ORDER BY betting_score DESC
	`, from.UTC().UnixMilli(), to.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var events []domain.LiveEvent
	for rows.Next() {
		var (
			ev              domain.LiveEvent
			conditionID     sql.NullString
			question, slug  sql.NullString
			isLive, hasLive int
			endDate         sql.NullInt64
			lastSeen        int64
		)
		if err := rows.Scan(
			&ev.Market.ID,
			&conditionID,
			&question,
			&slug,
			&ev.Category,
			&ev.BettingScore,
			&ev.Spread,
			&ev.Market.Volume,
			&ev.Market.Liquidity,
			&isLive,
			&hasLive,
			&endDate,
			&lastSeen,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}

		ev.Market.ConditionID = conditionID.String
		ev.Market.Question = question.String
		ev.Market.Slug = slug.String
		ev.Market.Active = true
		ev.IsLive = isLive == 1
		ev.HasLiveUpdates = hasLive == 1
		if endDate.Valid {
			ev.Market.EndDate = time.UnixMilli(endDate.Int64).UTC()
		}
		ev.HoursToClose = ev.Market.HoursToClose(time.UnixMilli(lastSeen).UTC())
		events = append(events, ev)
	}

	return events, rows.Err()
}

// RecordPlacement agrega una orden aceptada al journal.
func (s *SQLiteStorage) RecordPlacement(ctx context.Context, o domain.PlacedOrder) error {
	ts := o.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, kind, order_id, order_hash, token_id, side, price, size, status, success, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		uuid.New().String(), kindPlacement, o.OrderID, o.OrderHash, o.TokenID,
		string(o.Side), o.Price, o.Size, o.Status, ts.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordPlacement: %w", err)
	}
	return nil
}

// RecordCancel agrega el resultado de una cancelación al journal, exitosa o no.
func (s *SQLiteStorage) RecordCancel(ctx context.Context, r domain.CancelResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, kind, order_id, success, message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), kindCancel, r.OrderID, boolInt(r.Success), r.Message,
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordCancel: %w", err)
	}
	return nil
}

// RecentOrders devuelve las últimas limit entradas del journal, más nuevas primero.
func (s *SQLiteStorage) RecentOrders(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, order_id, order_hash, token_id, side, price, size,
		       status, success, message, recorded_at
		FROM orders
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentOrders: query: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var (
			e                                  domain.JournalEntry
			hash, token, side, status, message sql.NullString
			success                            int
			recordedAt                         int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.OrderID, &hash, &token, &side,
			&e.Price, &e.Size, &status, &success, &message, &recordedAt); err != nil {
			return nil, fmt.Errorf("storage.RecentOrders: scan row: %w", err)
		}
		e.OrderHash = hash.String
		e.TokenID = token.String
		e.Side = domain.Side(side.String)
		e.Status = status.String
		e.Message = message.String
		e.Success = success == 1
		e.RecordedAt = time.UnixMilli(recordedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// filterChanged devuelve los eventos que cambiaron respecto al estado en
// caché, y actualiza la caché con el nuevo estado.
func (s *SQLiteStorage) filterChanged(events []domain.LiveEvent) []domain.LiveEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toWrite []domain.LiveEvent
	for _, ev := range events {
		id := ev.Market.ID
		if prev, ok := s.cache[id]; ok {
			unchanged := prev.category == ev.Category &&
				prev.isLive == ev.IsLive &&
				relChange(prev.score, ev.BettingScore) < scoreChangePct
			if unchanged {
				continue
			}
		}

		toWrite = append(toWrite, ev)
		s.cache[id] = cachedState{
			category: ev.Category,
			score:    ev.BettingScore,
			isLive:   ev.IsLive,
		}
	}
	return toWrite
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
// El journal de órdenes no se poda.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := s.now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM scans WHERE scanned_at < ?`, now.Add(-retentionScans).UnixMilli())
	s.db.ExecContext(ctx, `DELETE FROM live_events WHERE last_seen < ?`, now.Add(-retentionEvents).UnixMilli())
}

// warmCache precarga la caché desde la DB al arrancar, evitando escrituras
// redundantes en el primer ciclo tras un reinicio.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT market_id, category, betting_score, is_live FROM live_events`,
	)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var id, cat string
		var score float64
		var isLive int
		if rows.Scan(&id, &cat, &score, &isLive) == nil {
			s.cache[id] = cachedState{
				category: cat,
				score:    score,
				isLive:   isLive == 1,
			}
		}
	}
}

// scanSummary cuenta los eventos en vivo y el mejor score del ciclo.
func scanSummary(events []domain.LiveEvent) (live int, best float64) {
	for _, e := range events {
		if e.IsLive {
			live++
		}
		if e.BettingScore > best {
			best = e.BettingScore
		}
	}
	return
}

// relChange devuelve el cambio relativo entre dos valores (0.0 – ∞).
func relChange(old, new float64) float64 {
	if old == 0 {
		return 1.0 // forzar escritura si antes era 0
	}
	return math.Abs(new-old) / math.Abs(old)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
