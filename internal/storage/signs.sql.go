package storage

import (
	"context"
)

const countSigns = `-- name: CountSigns :one
SELECT COUNT(*) FROM zodiac_signs
`

func (q *Queries) CountSigns(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSigns)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteAllSigns = `-- name: DeleteAllSigns :exec
DELETE FROM zodiac_signs
`

func (q *Queries) DeleteAllSigns(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllSigns)
	return err
}

const insertSign = `-- name: InsertSign :one
INSERT INTO zodiac_signs (sign_name, start_month, start_day, end_month, end_day, description, element, ruling_planet, emoji)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertSignParams struct {
	SignName     string `json:"sign_name"`
	StartMonth   int64  `json:"start_month"`
	StartDay     int64  `json:"start_day"`
	EndMonth     int64  `json:"end_month"`
	EndDay       int64  `json:"end_day"`
	Description  string `json:"description"`
	Element      string `json:"element"`
	RulingPlanet string `json:"ruling_planet"`
	Emoji        string `json:"emoji"`
}

func (q *Queries) InsertSign(ctx context.Context, arg InsertSignParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertSign,
		arg.SignName,
		arg.StartMonth,
		arg.StartDay,
		arg.EndMonth,
		arg.EndDay,
		arg.Description,
		arg.Element,
		arg.RulingPlanet,
		arg.Emoji,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listSigns = `-- name: ListSigns :many
SELECT id, sign_name, start_month, start_day, end_month, end_day, description, element, ruling_planet, emoji
FROM zodiac_signs
ORDER BY id
`

func (q *Queries) ListSigns(ctx context.Context) ([]ZodiacSign, error) {
	rows, err := q.db.QueryContext(ctx, listSigns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ZodiacSign
	for rows.Next() {
		var i ZodiacSign
		if err := rows.Scan(
			&i.ID,
			&i.SignName,
			&i.StartMonth,
			&i.StartDay,
			&i.EndMonth,
			&i.EndDay,
			&i.Description,
			&i.Element,
			&i.RulingPlanet,
			&i.Emoji,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
