package writer

import (
	"context"
	"database/sql"
	"fmt"
	"remoquerier/internal/model"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

const (
	insertRoom = `insert into temp (temp, created_at) values (?, ?)`

	insertRoomWeather = `insert into temp (stored, room_temp, room_measured, weather_temp, weather_measured) ` +
		`values (datetime('now', 'localtime'), ?, ?, ?, ?)`
)

// Writer appends samples to the existing "temp" table. It never creates or
// alters the schema.
type Writer struct {
	db *sql.DB
}

// Open connects to the SQLite file at path. SQLite creates the file if it
// does not exist yet.
func Open(path string) (*Writer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return &Writer{db: db}, nil
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) Write(ctx context.Context, sample model.Sample) error {
	query, args := statement(sample)

	stmt, err := w.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	log.Debug("Insert", "sql", query, "args", args)
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	defer rows.Close()

	n, err := drain(rows)
	if err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}
	log.Debug("Insert done", "returned_rows", n)

	return nil
}

// statement picks the column layout matching the sample's sources.
func statement(sample model.Sample) (string, []any) {
	if !sample.HasWeather() {
		return insertRoom, []any{
			sample.Room.Temperature,
			sample.Room.MeasuredAt,
		}
	}

	return insertRoomWeather, []any{
		sample.Room.Temperature,
		sample.Room.MeasuredAt,
		sample.Weather.Temperature,
		sample.Weather.MeasuredAt,
	}
}

// drain consumes whatever the insert returned and logs it.
func drain(rows *sql.Rows) (int, error) {
	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	n := 0
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return n, err
		}
		log.Debug("Row", "columns", cols, "values", vals)
		n++
	}

	return n, rows.Err()
}
