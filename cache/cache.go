/*
 * cache.go, part of gocmiles.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
//Package cache keeps conformer ensembles in an SQLite database, so a conformer search
//is not repeated for the same molecule and options.
package cache

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	chem "github.com/rmera/gocmiles"
	"github.com/zeebo/blake3"

	_ "modernc.org/sqlite" //pure Go SQLite driver
)

const schema = `CREATE TABLE IF NOT EXISTS conformers (
	key     TEXT PRIMARY KEY,
	sdf     BLOB NOT NULL,
	created INTEGER NOT NULL
)`

//Cache is a conformer cache backed by an SQLite file.
type Cache struct {
	db *sql.DB
}

//Open opens, creating it if needed, the cache in the SQLite file path.
//":memory:" gives a cache that lives only as long as the Cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache/Open: %w", err)
	}
	//one connection, so ":memory:" databases are not lost between statements.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache/Open: %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

//Close closes the underlying database.
func (C *Cache) Close() error {
	return C.db.Close()
}

//Key returns the BLAKE3 hash, hex-encoded, of the SD representation of the first conformer of
//mol together with the JSON encoding of opts.
func Key(mol *chem.Molecule, opts any) (string, error) {
	first := mol
	if mol.NConformers() > 1 {
		first = mol.Copy()
		first.Truncate(1)
	}
	var sdf bytes.Buffer
	if err := chem.WriteSDF(&sdf, first); err != nil {
		return "", fmt.Errorf("cache/Key: %w", err)
	}
	o, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("cache/Key: %w", err)
	}
	h := blake3.New()
	h.Write(sdf.Bytes())
	h.Write([]byte{0})
	h.Write(o)
	return hex.EncodeToString(h.Sum(nil)), nil
}

//Get returns the SD text stored under key, and false if there is none.
func (C *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var sdf []byte
	err := C.db.QueryRowContext(ctx, "SELECT sdf FROM conformers WHERE key = ?", key).Scan(&sdf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache/Get: %w", err)
	}
	return sdf, true, nil
}

//Put stores sdf under key, replacing any previous value.
func (C *Cache) Put(ctx context.Context, key string, sdf []byte) error {
	_, err := C.db.ExecContext(ctx, "INSERT OR REPLACE INTO conformers (key, sdf, created) VALUES (?, ?, ?)",
		key, sdf, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache/Put: %w", err)
	}
	return nil
}

//Molecule returns the conformer ensemble stored under key, and nil if there is none.
func (C *Cache) Molecule(ctx context.Context, key string) (*chem.Molecule, error) {
	sdf, ok, err := C.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	mol, err := chem.ReadSDF(bytes.NewReader(sdf))
	if err != nil {
		return nil, fmt.Errorf("cache/Molecule: %w", err)
	}
	return mol, nil
}

//PutMolecule stores every conformer of mol, with its energies, under key.
func (C *Cache) PutMolecule(ctx context.Context, key string, mol *chem.Molecule) error {
	var sdf bytes.Buffer
	if err := chem.WriteSDF(&sdf, mol); err != nil {
		return fmt.Errorf("cache/PutMolecule: %w", err)
	}
	return C.Put(ctx, key, sdf.Bytes())
}

//Len returns the number of entries in the cache.
func (C *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := C.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conformers").Scan(&n); err != nil {
		return 0, fmt.Errorf("cache/Len: %w", err)
	}
	return n, nil
}
