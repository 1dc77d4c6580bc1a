package mysql

import (
	"context"
	"database/sql"
	"time"

	"destiny_blue/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valNonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InsertTurn(ctx context.Context, t domain.Turn) (int64, error) {
	at := t.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertTurnSQL,
		t.SessionID,
		t.Channel,
		t.GuestMessage,
		t.Reply,
		valStr(t.Arrival),
		valStr(t.Departure),
		valInt(t.Adults),
		valInt(t.Children),
		valNonEmpty(t.Alert),
		at.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) InsertAck(ctx context.Context, a domain.Ack) error {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertAckSQL, a.SessionID, a.Label, at.UTC())
	return err
}

func (r *Repo) ListTurns(ctx context.Context, sessionID string, limit int) (domain.TurnsPage, error) {
	rows, err := r.db.QueryContext(ctx, listTurnsSQL, sessionID, limit)
	if err != nil {
		return domain.TurnsPage{}, err
	}
	defer rows.Close()

	out := []domain.Turn{}
	for rows.Next() {
		var t domain.Turn
		var (
			arrival, departure sql.NullTime
			adults, children   sql.NullInt64
			alert              sql.NullString
		)
		if err := rows.Scan(
			&t.ID,
			&t.SessionID,
			&t.Channel,
			&t.GuestMessage,
			&t.Reply,
			&arrival,
			&departure,
			&adults,
			&children,
			&alert,
			&t.CreatedAt,
		); err != nil {
			return domain.TurnsPage{}, err
		}
		if arrival.Valid {
			s := arrival.Time.Format("2006-01-02")
			t.Arrival = &s
		}
		if departure.Valid {
			s := departure.Time.Format("2006-01-02")
			t.Departure = &s
		}
		if adults.Valid {
			n := int(adults.Int64)
			t.Adults = &n
		}
		if children.Valid {
			n := int(children.Int64)
			t.Children = &n
		}
		if alert.Valid {
			t.Alert = alert.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return domain.TurnsPage{}, err
	}
	return domain.TurnsPage{Items: out}, nil
}
