package storage

// sqlite.go — record store del agente.
//
// Estrategia:
//   - `opportunities`: append-only, una fila por oportunidad detectada.
//     El orquestador estampa executed/trade_ref después de despachar.
//   - `trades`: ciclo de vida pending → executed/failed, escrito por los
//     executors.
//   - El P&L diario se agrega on demand desde trades — el risk manager
//     nunca cachea entre ciclos.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/tradebot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por oportunidad detectada, nunca se borra desde el core
CREATE TABLE IF NOT EXISTS opportunities (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    kind          TEXT    NOT NULL,
    detected_at   DATETIME NOT NULL,
    description   TEXT,
    expected_edge REAL    NOT NULL DEFAULT 0,
    confidence    TEXT    NOT NULL,
    action_hint   TEXT,
    payload       TEXT,
    executed      INTEGER NOT NULL DEFAULT 0,
    trade_ref     TEXT
);

-- Registro de intentos de ejecución
CREATE TABLE IF NOT EXISTS trades (
    id            TEXT PRIMARY KEY,
    strategy      TEXT NOT NULL,
    market_id     TEXT,
    symbol        TEXT,
    token_address TEXT,
    side          TEXT,
    amount        REAL NOT NULL DEFAULT 0,
    value_usd     REAL NOT NULL DEFAULT 0,
    status        TEXT NOT NULL,
    order_ref     TEXT,
    pnl           REAL NOT NULL DEFAULT 0,
    error         TEXT,
    created_at    DATETIME NOT NULL,
    executed_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_opp_detected  ON opportunities(detected_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_kind      ON opportunities(kind);
CREATE INDEX IF NOT EXISTS idx_trades_day    ON trades(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
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

	return &SQLiteStorage{db: db}, nil
}

// SaveOpportunity inserta una oportunidad y devuelve su id autogenerado.
func (s *SQLiteStorage) SaveOpportunity(ctx context.Context, opp domain.Opportunity) (int64, error) {
	payload, err := json.Marshal(opp.Payload)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveOpportunity: marshal payload: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO opportunities
			(kind, detected_at, description, expected_edge, confidence, action_hint, payload, executed, trade_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, '')`,
		string(opp.Kind),
		opp.DetectedAt.UTC(),
		opp.Description,
		opp.ExpectedEdge,
		opp.Confidence.String(),
		opp.ActionHint,
		string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveOpportunity: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.SaveOpportunity: last insert id: %w", err)
	}
	return id, nil
}

// MarkExecuted estampa executed=1 y el trade de referencia. Es idempotente a
// nivel de fila pero el orquestador solo lo llama una vez por oportunidad.
func (s *SQLiteStorage) MarkExecuted(ctx context.Context, oppID int64, tradeID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET executed = 1, trade_ref = ? WHERE id = ?`,
		tradeID, oppID,
	)
	if err != nil {
		return fmt.Errorf("storage.MarkExecuted: update %d: %w", oppID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.MarkExecuted: opportunity %d not found", oppID)
	}
	return nil
}

// CreateTrade inserta un trade nuevo.
func (s *SQLiteStorage) CreateTrade(ctx context.Context, t domain.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, strategy, market_id, symbol, token_address, side, amount, value_usd,
			 status, order_ref, pnl, error, created_at, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Strategy), t.MarketID, t.Symbol, t.TokenAddress, t.Side,
		t.Amount, t.ValueUSD, string(t.Status), t.OrderRef, t.PnL, t.Error,
		t.CreatedAt.UTC(), nullableTime(t.ExecutedAt),
	)
	if err != nil {
		return fmt.Errorf("storage.CreateTrade: insert %s: %w", t.ID, err)
	}
	return nil
}

// UpdateTrade actualiza el resultado de un trade existente.
func (s *SQLiteStorage) UpdateTrade(ctx context.Context, t domain.Trade) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET status = ?, order_ref = ?, pnl = ?, error = ?, executed_at = ?
		WHERE id = ?`,
		string(t.Status), t.OrderRef, t.PnL, t.Error, nullableTime(t.ExecutedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.UpdateTrade: update %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.UpdateTrade: trade %s not found", t.ID)
	}
	return nil
}

// GetDailyPnL agrega el P&L de hoy (UTC) por estrategia. Solo cuentan los
// trades ejecutados: los intentos pending o failed no consumen el cupo
// diario del risk manager.
func (s *SQLiteStorage) GetDailyPnL(ctx context.Context) ([]domain.DailyPnL, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy,
		       COALESCE(SUM(pnl), 0),
		       COUNT(*),
		       COALESCE(SUM(value_usd), 0)
		FROM trades
		WHERE created_at >= ? AND status = 'executed'
		GROUP BY strategy`,
		dayStart,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetDailyPnL: query: %w", err)
	}
	defer rows.Close()

	var stats []domain.DailyPnL
	for rows.Next() {
		var row domain.DailyPnL
		var strategy string
		if err := rows.Scan(&strategy, &row.TotalPnL, &row.TradeCount, &row.Volume); err != nil {
			return nil, fmt.Errorf("storage.GetDailyPnL: scan row: %w", err)
		}
		row.Strategy = domain.Kind(strategy)
		stats = append(stats, row)
	}
	return stats, rows.Err()
}

// GetOpportunities devuelve las oportunidades detectadas en el rango dado,
// más recientes primero. Solo lo usan los reportes, no el ciclo.
func (s *SQLiteStorage) GetOpportunities(ctx context.Context, from, to time.Time) ([]domain.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, detected_at, description, expected_edge, confidence,
		       action_hint, payload, executed, trade_ref
		FROM opportunities
		WHERE detected_at BETWEEN ? AND ?
		ORDER BY detected_at DESC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOpportunities: query: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var kind, confidence, payload string
		var executed int

		if err := rows.Scan(
			&opp.ID, &kind, &opp.DetectedAt, &opp.Description, &opp.ExpectedEdge,
			&confidence, &opp.ActionHint, &payload, &executed, &opp.TradeRef,
		); err != nil {
			return nil, fmt.Errorf("storage.GetOpportunities: scan row: %w", err)
		}

		opp.Kind = domain.Kind(kind)
		opp.Executed = executed == 1
		if conf, err := domain.ParseConfidence(confidence); err == nil {
			opp.Confidence = conf
		}
		if payload != "" {
			_ = json.Unmarshal([]byte(payload), &opp.Payload)
		}
		opps = append(opps, opp)
	}
	return opps, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// nullableTime convierte *time.Time a un valor insertable (NULL si nil).
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
