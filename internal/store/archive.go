package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"censusapi/internal/sdmx"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS dataset (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	code        TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dimension (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset_id INTEGER NOT NULL REFERENCES dataset(id) ON DELETE CASCADE,
	code       TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	UNIQUE(dataset_id, code)
);

CREATE TABLE IF NOT EXISTS category (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	dimension_id INTEGER NOT NULL REFERENCES dimension(id) ON DELETE CASCADE,
	code         TEXT NOT NULL,
	label        TEXT NOT NULL DEFAULT '',
	position     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS observation (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset_id INTEGER NOT NULL REFERENCES dataset(id) ON DELETE CASCADE,
	obs_value  REAL NOT NULL,
	fields     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_observation_dataset ON observation(dataset_id);
`

// Archive persists datasets to SQLite so a restarted server can serve
// without hitting the upstream API again.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveDataset writes the dataset in one transaction, replacing any
// previously archived version with the same code.
func (a *Archive) SaveDataset(ctx context.Context, ds *Dataset) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset WHERE code = ?`, ds.Code); err != nil {
		return fmt.Errorf("removing previous dataset %s: %w", ds.Code, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO dataset (code, name, description) VALUES (?, ?, ?)`,
		ds.Code, ds.Name, ds.Description)
	if err != nil {
		return fmt.Errorf("inserting dataset %s: %w", ds.Code, err)
	}
	datasetID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("resolving dataset id: %w", err)
	}

	for _, dim := range ds.Dimensions {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO dimension (dataset_id, code, label, position) VALUES (?, ?, ?, ?)`,
			datasetID, dim.ID, dim.Label, dim.Position)
		if err != nil {
			return fmt.Errorf("inserting dimension %s: %w", dim.ID, err)
		}
		dimensionID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("resolving dimension id: %w", err)
		}
		for i, cat := range dim.Categories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO category (dimension_id, code, label, position) VALUES (?, ?, ?, ?)`,
				dimensionID, cat.Code, cat.Label, i); err != nil {
				return fmt.Errorf("inserting category %s: %w", cat.Code, err)
			}
		}
	}

	insertObs, err := tx.PrepareContext(ctx,
		`INSERT INTO observation (dataset_id, obs_value, fields) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing observation insert: %w", err)
	}
	defer insertObs.Close()

	for _, rec := range ds.Records {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encoding observation fields: %w", err)
		}
		if _, err := insertObs.ExecContext(ctx, datasetID, rec.ObsValue, string(fields)); err != nil {
			return fmt.Errorf("inserting observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing dataset %s: %w", ds.Code, err)
	}
	return nil
}

// LoadAll restores every archived dataset.
func (a *Archive) LoadAll(ctx context.Context) ([]*Dataset, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, code, name, description FROM dataset ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing archived datasets: %w", err)
	}
	defer rows.Close()

	type datasetRow struct {
		id int64
		ds *Dataset
	}
	var loaded []datasetRow
	for rows.Next() {
		var r datasetRow
		r.ds = &Dataset{}
		if err := rows.Scan(&r.id, &r.ds.Code, &r.ds.Name, &r.ds.Description); err != nil {
			return nil, fmt.Errorf("scanning dataset row: %w", err)
		}
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating datasets: %w", err)
	}

	out := make([]*Dataset, 0, len(loaded))
	for _, r := range loaded {
		if err := a.loadDimensions(ctx, r.id, r.ds); err != nil {
			return nil, err
		}
		if err := a.loadObservations(ctx, r.id, r.ds); err != nil {
			return nil, err
		}
		out = append(out, r.ds)
	}
	return out, nil
}

func (a *Archive) loadDimensions(ctx context.Context, datasetID int64, ds *Dataset) error {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, code, label, position FROM dimension WHERE dataset_id = ? ORDER BY position`,
		datasetID)
	if err != nil {
		return fmt.Errorf("loading dimensions for %s: %w", ds.Code, err)
	}
	defer rows.Close()

	var dimensionIDs []int64
	for rows.Next() {
		var id int64
		var dim DimensionInfo
		if err := rows.Scan(&id, &dim.ID, &dim.Label, &dim.Position); err != nil {
			return fmt.Errorf("scanning dimension row: %w", err)
		}
		ds.Dimensions = append(ds.Dimensions, dim)
		dimensionIDs = append(dimensionIDs, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating dimensions: %w", err)
	}

	for i, dimID := range dimensionIDs {
		catRows, err := a.db.QueryContext(ctx,
			`SELECT code, label FROM category WHERE dimension_id = ? ORDER BY position`, dimID)
		if err != nil {
			return fmt.Errorf("loading categories for %s: %w", ds.Dimensions[i].ID, err)
		}
		for catRows.Next() {
			var cat Category
			if err := catRows.Scan(&cat.Code, &cat.Label); err != nil {
				catRows.Close()
				return fmt.Errorf("scanning category row: %w", err)
			}
			ds.Dimensions[i].Categories = append(ds.Dimensions[i].Categories, cat)
		}
		if err := catRows.Err(); err != nil {
			catRows.Close()
			return fmt.Errorf("iterating categories: %w", err)
		}
		catRows.Close()
	}
	return nil
}

func (a *Archive) loadObservations(ctx context.Context, datasetID int64, ds *Dataset) error {
	rows, err := a.db.QueryContext(ctx,
		`SELECT obs_value, fields FROM observation WHERE dataset_id = ? ORDER BY id`,
		datasetID)
	if err != nil {
		return fmt.Errorf("loading observations for %s: %w", ds.Code, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec sdmx.FlatRecord
		var fields string
		if err := rows.Scan(&rec.ObsValue, &fields); err != nil {
			return fmt.Errorf("scanning observation row: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
			return fmt.Errorf("decoding observation fields: %w", err)
		}
		ds.Records = append(ds.Records, rec)
	}
	return rows.Err()
}
