package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/google/uuid"
)

// MarkPaidResult describes what MarkOrderPaid did. Both fields false means no
// pending order matched the session.
type MarkPaidResult struct {
	Updated   bool
	Duplicate bool
}

const orderColumns = `id, session_id, customer_email, status, items, amount_total_cents, currency, created_at, paid_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order     domain.Order
		itemsJSON string
		paidAt    sql.NullTime
	)
	err := row.Scan(
		&order.ID,
		&order.SessionID,
		&order.CustomerEmail,
		&order.Status,
		&itemsJSON,
		&order.AmountTotalCents,
		&order.Currency,
		&order.CreatedAt,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	return &order, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO orders (session_id, customer_email, status, items, amount_total_cents, currency, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	insertErr := r.db.QueryRowContext(ctx, query,
		order.SessionID,
		order.CustomerEmail,
		order.Status,
		string(itemsJSON),
		order.AmountTotalCents,
		order.Currency,
		order.CreatedAt,
	).Scan(&order.ID)
	if insertErr != nil {
		if isUniqueViolation(insertErr) {
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *Repository) GetOrderBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by session id: %w", err)
	}
	return order, nil
}

func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

// MarkOrderPaid moves the order for sessionID from pending to paid in a single
// transaction. A non-empty eventID is recorded first; an id seen before makes
// the whole call a no-op. The id is only kept once an order for sessionID
// exists. The transition writes an order.paid outbox event.
func (r *Repository) MarkOrderPaid(ctx context.Context, sessionID, eventID string) (MarkPaidResult, error) {
	var result MarkPaidResult
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if eventID != "" {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO processed_events (event_id, processed_at) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING`,
			eventID, now)
		if err != nil {
			return result, fmt.Errorf("record processed event: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("record processed event rows affected: %w", err)
		}
		if n == 0 {
			result.Duplicate = true
			return result, nil
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, paid_at = $2 WHERE session_id = $3 AND status = $4`,
		domain.OrderStatusPaid, now, sessionID, domain.OrderStatusPending)
	if err != nil {
		return result, fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return result, fmt.Errorf("update order rows affected: %w", err)
	}

	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE session_id = $1`, sessionID).Scan(&exists)
		if err != nil {
			return result, fmt.Errorf("query order: %w", err)
		}
		// no order yet: leave the event id unrecorded so a redelivery can still apply
		if exists == 0 {
			return result, nil
		}
	}

	if n > 0 {
		order, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE session_id = $1`, sessionID))
		if err != nil {
			return result, fmt.Errorf("reload paid order: %w", err)
		}
		if err := insertOrderPaidEvent(ctx, tx, order, now); err != nil {
			return result, err
		}
		result.Updated = true
	}

	if err := tx.Commit(); err != nil {
		return MarkPaidResult{}, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

func insertOrderPaidEvent(ctx context.Context, tx *sql.Tx, order *domain.Order, paidAt time.Time) error {
	payload, err := json.Marshal(domain.OrderPaidEvent{
		OrderID:          order.ID,
		SessionID:        order.SessionID,
		CustomerEmail:    order.CustomerEmail,
		Items:            order.Items,
		AmountTotalCents: order.AmountTotalCents,
		Currency:         order.Currency,
		PaidAt:           paidAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order paid event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(),
		strconv.FormatInt(order.ID, 10),
		domain.EventTypeOrderPaid,
		string(payload),
		paidAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
