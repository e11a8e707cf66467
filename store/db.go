// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store keeps analyzed scaling results in a SQL database so
// that results from different machines and days can be queried
// together.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
)

// DB is a high-level interface to a results database. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	countDay  *sql.Stmt
	insertRun *sql.Stmt
	insertRow *sql.Stmt
}

// Open creates a DB backed by a SQL database. The parameters are the
// same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func Open(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. This is used by the sqlite3 package to
// configure its connections. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Day CHAR(8) NOT NULL,
	Seq INTEGER NOT NULL,
	Source VARCHAR(1024),
	Profile VARCHAR(255),
	Metric VARCHAR(255),
	Created VARCHAR(32)
);
CREATE TABLE IF NOT EXISTS Stats (
	RunID BIGINT UNSIGNED,
	StatID BIGINT UNSIGNED,
	Status VARCHAR(16),
	N INTEGER,
	Mean DOUBLE,
	Median DOUBLE,
	StdDev DOUBLE,
	MinVal DOUBLE,
	MaxVal DOUBLE,
	Speedup DOUBLE,
	Efficiency DOUBLE,
	Baseline DOUBLE,
	Best BOOLEAN,
	CheckVal DOUBLE,
	PRIMARY KEY (RunID, StatID),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS StatLabels (
	RunID BIGINT UNSIGNED,
	StatID BIGINT UNSIGNED,
	Pos INTEGER,
	Name VARCHAR(255),
	Value VARCHAR(8192),
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	PRIMARY KEY (RunID, StatID, Pos),
	FOREIGN KEY (RunID, StatID) REFERENCES Stats(RunID, StatID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS StatLabelsNameValue ON StatLabels(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.countDay, err = db.sql.Prepare("SELECT COUNT(*) FROM Runs WHERE Day = ?")
	if err != nil {
		return err
	}
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(Day, Seq, Source, Profile, Metric, Created) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertRow, err = db.sql.Prepare(`INSERT INTO Stats(RunID, StatID, Status, N, Mean, Median, StdDev, MinVal, MaxVal, Speedup, Efficiency, Baseline, Best, CheckVal)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// A Run is one analyzed input stored in the database.
type Run struct {
	// ID identifies the run as "YYYYMMDD.N", where N counts the
	// runs stored on that day.
	ID string

	// id is the numeric primary key.
	id int64
	// statid is the index of the next row to insert.
	statid int64
	db     *DB
}

// NewRun records a new analyzed input. source is the input's name and
// profile and metric describe how it was analyzed.
func (db *DB) NewRun(ctx context.Context, source, profile, metric string) (*Run, error) {
	t := now().UTC()
	day := t.Format("20060102")

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var n int64
	if err := tx.StmtContext(ctx, db.countDay).QueryRowContext(ctx, day).Scan(&n); err != nil {
		return nil, err
	}
	res, err := tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, day, n+1, source, profile, metric, t.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Run{
		ID: fmt.Sprintf("%s.%d", day, n+1),
		id: id,
		db: db,
	}, nil
}

// nullFloat maps the non-finite values used for "not available" to
// SQL NULL, which is all MySQL can store.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Insert stores one processed row in r, with a label for each of its
// key fields.
func (r *Run) Insert(ctx context.Context, row *scalestat.Row) (err error) {
	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	_, err = tx.StmtContext(ctx, r.db.insertRow).ExecContext(ctx,
		r.id, r.statid, string(row.Status), row.N,
		nullFloat(row.Mean), nullFloat(row.Median), nullFloat(row.StdDev),
		nullFloat(row.Min), nullFloat(row.Max),
		nullFloat(row.Speedup), nullFloat(row.Efficiency), nullFloat(row.BaselineCenter),
		row.Best, nullFloat(row.Check))
	if err != nil {
		return err
	}
	var args []interface{}
	for i, kv := range row.Key {
		args = append(args, r.id, r.statid, i, kv.Key, kv.Value)
	}
	if len(args) > 0 {
		query := "INSERT INTO StatLabels(RunID, StatID, Pos, Name, Value) VALUES " + strings.Repeat("(?, ?, ?, ?, ?), ", len(args)/5)
		query = strings.TrimSuffix(query, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	r.statid++
	return nil
}

// InsertResult stores every processed row of res in r.
func (r *Run) InsertResult(ctx context.Context, res *scalestat.Result) error {
	for _, row := range res.Rows() {
		if err := r.Insert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// A Stat is a stored row together with the run it belongs to.
type Stat struct {
	RunID   string
	Source  string
	Profile string
	Metric  string
	Row     *scalestat.Row
}

// Query returns the stored rows matching q, ordered by run and then by
// their order within the run. q is a space-separated list of
// "name:value" words, each of which must match a key field of the row;
// the word "run:ID" selects a single run instead. Words may be quoted
// or contain backslash-escaped spaces.
func (db *DB) Query(ctx context.Context, q string) ([]*Stat, error) {
	var where []string
	var args []interface{}
	for _, word := range splitQueryWords(q) {
		name, value, ok := strings.Cut(word, ":")
		if !ok {
			return nil, fmt.Errorf("query word %q is not name:value", word)
		}
		if name == "run" {
			day, seq, err := parseRunID(value)
			if err != nil {
				return nil, err
			}
			where = append(where, "r.Day = ? AND r.Seq = ?")
			args = append(args, day, seq)
			continue
		}
		where = append(where, "EXISTS (SELECT 1 FROM StatLabels l WHERE l.RunID = s.RunID AND l.StatID = s.StatID AND l.Name = ? AND l.Value = ?)")
		args = append(args, name, value)
	}
	query := `SELECT s.RunID, s.StatID, r.Day, r.Seq, r.Source, r.Profile, r.Metric,
	s.Status, s.N, s.Mean, s.Median, s.StdDev, s.MinVal, s.MaxVal, s.Speedup, s.Efficiency, s.Baseline, s.Best, s.CheckVal
FROM Stats s JOIN Runs r ON r.RunID = s.RunID`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY s.RunID, s.StatID"

	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	type statKey struct{ run, stat int64 }
	var stats []*Stat
	var keys []statKey
	for rows.Next() {
		var (
			k                 statKey
			day               string
			seq               int64
			st                Stat
			row               scalestat.Row
			status            string
			mean, median, std sql.NullFloat64
			lo, hi            sql.NullFloat64
			speedup, eff      sql.NullFloat64
			base, check       sql.NullFloat64
		)
		if err := rows.Scan(&k.run, &k.stat, &day, &seq, &st.Source, &st.Profile, &st.Metric,
			&status, &row.N, &mean, &median, &std, &lo, &hi, &speedup, &eff, &base, &row.Best, &check); err != nil {
			rows.Close()
			return nil, err
		}
		st.RunID = fmt.Sprintf("%s.%d", day, seq)
		row.Status = scalestat.Status(status)
		row.Mean, row.Median, row.StdDev = floatOf(mean), floatOf(median), floatOf(std)
		row.Min, row.Max = floatOf(lo), floatOf(hi)
		row.Speedup, row.Efficiency = floatOf(speedup), floatOf(eff)
		row.BaselineCenter, row.Check = floatOf(base), floatOf(check)
		st.Row = &row
		stats = append(stats, &st)
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Fetch labels after closing rows: a single-connection
	// database cannot serve two queries at once.
	for i, k := range keys {
		labels, err := db.labels(ctx, k.run, k.stat)
		if err != nil {
			return nil, err
		}
		stats[i].Row.Key = labels
	}
	return stats, nil
}

func (db *DB) labels(ctx context.Context, run, stat int64) ([]runfmt.Config, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT Name, Value FROM StatLabels WHERE RunID = ? AND StatID = ? ORDER BY Pos", run, stat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var key []runfmt.Config
	for rows.Next() {
		var kv runfmt.Config
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, err
		}
		key = append(key, kv)
	}
	return key, rows.Err()
}

// parseRunID splits a run ID into its day and sequence number.
func parseRunID(id string) (day string, seq int64, err error) {
	day, n, ok := strings.Cut(id, ".")
	if ok {
		seq, err = strconv.ParseInt(n, 10, 64)
	}
	if !ok || err != nil || len(day) != 8 {
		return "", 0, fmt.Errorf("bad run ID %q", id)
	}
	return day, seq, nil
}

func floatOf(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// CountRuns returns the number of runs stored in the database.
func (db *DB) CountRuns(ctx context.Context) (int, error) {
	var n int
	err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Runs").Scan(&n)
	return n, err
}

// DeleteRun removes the run with the given ID and all of its rows.
func (db *DB) DeleteRun(ctx context.Context, id string) (err error) {
	day, seq, err := parseRunID(id)
	if err != nil {
		return err
	}
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var runID int64
	if err := tx.QueryRowContext(ctx, "SELECT RunID FROM Runs WHERE Day = ? AND Seq = ?", day, seq).Scan(&runID); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("no run %s", id)
		}
		return err
	}
	for _, q := range []string{
		"DELETE FROM StatLabels WHERE RunID = ?",
		"DELETE FROM Stats WHERE RunID = ?",
		"DELETE FROM Runs WHERE RunID = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, runID); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.countDay, db.insertRun, db.insertRow} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}

// splitQueryWords splits q into words using shell syntax (whitespace
// can be escaped with double quotes or with a backslash).
func splitQueryWords(q string) []string {
	var words []string
	word := make([]byte, len(q))
	w := 0
	quoting := false
	for r := 0; r < len(q); r++ {
		switch c := q[r]; {
		case c == '"' && quoting:
			quoting = false
		case quoting:
			if c == '\\' {
				r++
			}
			if r < len(q) {
				word[w] = q[r]
				w++
			}
		case c == '"':
			quoting = true
		case c == ' ', c == '\t':
			if w > 0 {
				words = append(words, string(word[:w]))
			}
			w = 0
		case c == '\\':
			r++
			fallthrough
		default:
			if r < len(q) {
				word[w] = q[r]
				w++
			}
		}
	}
	if w > 0 {
		words = append(words, string(word[:w]))
	}
	return words
}
