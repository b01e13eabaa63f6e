package db

import (
	"database/sql"
	"errors"
	"strings"
)

const cardColumns = `id, seq, title, type, description, raw`

// scanCard scans a row into a CardRow. The row must have cardColumns in order.
func scanCard(scanner interface{ Scan(dest ...any) error }) (CardRow, error) {
	var c CardRow
	err := scanner.Scan(&c.ID, &c.Seq, &c.Title, &c.Type, &c.Description, &c.Raw)
	return c, err
}

func (d *DB) queryCards(query string, args ...any) ([]CardRow, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []CardRow
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// AllCards returns all cards in snapshot order
func (d *DB) AllCards() ([]CardRow, error) {
	return d.queryCards(`SELECT ` + cardColumns + ` FROM cards ORDER BY seq`)
}

// GetCard returns a single card by ID, or nil if not found
func (d *DB) GetCard(id string) (*CardRow, error) {
	row := d.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SearchByIDPrefix finds cards whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]CardRow, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return d.queryCards(`SELECT `+cardColumns+` FROM cards WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT ?`,
		escaped+"%", limit)
}

// CountCards returns the number of indexed cards.
func (d *DB) CountCards() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&n)
	return n, err
}
