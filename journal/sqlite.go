package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/pullback/sim"
)

// SQLite stores runs, trades, and trade events in a single database file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// RecordRun writes the run summary plus every completed trade and its
// event timeline in one transaction.
func (j *SQLite) RecordRun(run RunRecord, trades []*sim.SimulatedTrade) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := run.Stats
	_, err = tx.Exec(`
		INSERT INTO runs
		(run_id, created, as_of, symbols, config,
		 trades, wins, losses, win_rate, total_pnl, avg_r_multiple,
		 profit_factor, best_pnl, worst_pnl, avg_days_held)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created, run.AsOf, run.Symbols, run.Config,
		st.Trades, st.Wins, st.Losses, st.WinRate, st.TotalPnL, st.AvgRMultiple,
		st.ProfitFactor, st.BestPnL, st.WorstPnL, st.AvgDaysHeld,
	)
	if err != nil {
		return err
	}

	for _, t := range trades {
		rec := NewTradeRecord(run.RunID, t)
		_, err = tx.Exec(`
			INSERT INTO trades
			(trade_id, run_id, symbol, entry_date, entry_price, exit_date,
			 exit_price, shares, exit_reason, pnl, pnl_pct, days_held, r_multiple)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.TradeID, rec.RunID, rec.Symbol, rec.EntryDate, rec.EntryPrice,
			rec.ExitDate, rec.ExitPrice, rec.Shares, rec.ExitReason,
			rec.PnL, rec.PnLPct, rec.DaysHeld, rec.RMultiple,
		)
		if err != nil {
			return err
		}

		for _, ev := range t.Events {
			_, err = tx.Exec(`
				INSERT INTO events (trade_id, date, type, price, old_stop, new_stop, note)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.TradeID, ev.Date, ev.Type, ev.Price, ev.OldStop, ev.NewStop, ev.Note,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetRun returns a run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	row := j.db.QueryRow(`
		SELECT run_id, created, as_of, symbols, config,
		       trades, wins, losses, win_rate, total_pnl, avg_r_multiple,
		       profit_factor, best_pnl, worst_pnl, avg_days_held
		FROM runs WHERE run_id = ?`, runID)

	err := row.Scan(
		&rec.RunID, &rec.Created, &rec.AsOf, &rec.Symbols, &rec.Config,
		&rec.Stats.Trades, &rec.Stats.Wins, &rec.Stats.Losses,
		&rec.Stats.WinRate, &rec.Stats.TotalPnL, &rec.Stats.AvgRMultiple,
		&rec.Stats.ProfitFactor, &rec.Stats.BestPnL, &rec.Stats.WorstPnL,
		&rec.Stats.AvgDaysHeld,
	)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %q not found", runID)
	}
	return rec, err
}

// ListRuns returns run summaries, most recent first.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(`
		SELECT run_id, created, as_of, symbols, config,
		       trades, wins, losses, win_rate, total_pnl, avg_r_multiple,
		       profit_factor, best_pnl, worst_pnl, avg_days_held
		FROM runs ORDER BY run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Created, &rec.AsOf, &rec.Symbols, &rec.Config,
			&rec.Stats.Trades, &rec.Stats.Wins, &rec.Stats.Losses,
			&rec.Stats.WinRate, &rec.Stats.TotalPnL, &rec.Stats.AvgRMultiple,
			&rec.Stats.ProfitFactor, &rec.Stats.BestPnL, &rec.Stats.WorstPnL,
			&rec.Stats.AvgDaysHeld,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesByRun returns the trades of one run ordered by entry date.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, symbol, entry_date, entry_price, exit_date,
		       exit_price, shares, exit_reason, pnl, pnl_pct, days_held, r_multiple
		FROM trades WHERE run_id = ? ORDER BY entry_date, symbol`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID, &rec.RunID, &rec.Symbol, &rec.EntryDate, &rec.EntryPrice,
			&rec.ExitDate, &rec.ExitPrice, &rec.Shares, &rec.ExitReason,
			&rec.PnL, &rec.PnLPct, &rec.DaysHeld, &rec.RMultiple,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEventsByTrade returns a trade's timeline in date order.
func (j *SQLite) ListEventsByTrade(tradeID string) ([]EventRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, date, type, price, old_stop, new_stop, note
		FROM events WHERE trade_id = ? ORDER BY date`, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(
			&rec.TradeID, &rec.Date, &rec.Type, &rec.Price,
			&rec.OldStop, &rec.NewStop, &rec.Note,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
