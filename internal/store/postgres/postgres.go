package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"laundryops/internal/domain"
	"laundryops/internal/store"
	"laundryops/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var (
		order       domain.Order
		lat, lon    sql.NullFloat64
		processedBy sql.NullString
		processedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, outlet_id, customer_name, customer_username, customer_latitude, customer_longitude, status,
			total_weight_kg, laundry_price, delivery_fee, distance_km, total_price, total_is_partial,
			processed_by, processed_at, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.OutletID, &order.CustomerName, &order.CustomerUsername, &lat, &lon, &order.Status,
		&order.TotalWeightKg, &order.LaundryPrice, &order.DeliveryFee, &order.DistanceKm, &order.TotalPrice, &order.TotalIsPartial,
		&processedBy, &processedAt, &order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if lat.Valid && lon.Valid {
		order.CustomerLocation = &domain.GeoPoint{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	order.ProcessedBy = processedBy.String
	if processedAt.Valid {
		at := processedAt.Time.UTC()
		order.ProcessedAt = &at
	}
	order.CreatedAt = order.CreatedAt.UTC()

	items, err := s.listOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (s *Store) listOrderItems(ctx context.Context, orderID string) ([]domain.OrderLineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT catalog_item_id, quantity, weight_kg, color, brand, material, details
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.OrderLineItem, 0, 8)
	for rows.Next() {
		var (
			item    domain.OrderLineItem
			details []byte
		)
		if err := rows.Scan(&item.CatalogItemID, &item.Quantity, &item.WeightKg, &item.Color, &item.Brand, &item.Material, &details); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &item.Details); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SaveProcessedOrder(ctx context.Context, order domain.Order, expectedStatus domain.PipelineStage) (*domain.Order, error) {
	if order.ID == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidOrder
	}

	saved, err := s.saveProcessedOrder(ctx, order, expectedStatus)
	if isSerializationFailure(err) {
		return nil, store.ErrOrderNotProcessable
	}
	return saved, err
}

// saveProcessedOrder runs at READ COMMITTED so a writer blocked on FOR UPDATE
// re-reads the committed status instead of failing the transaction.
func (s *Store) saveProcessedOrder(ctx context.Context, order domain.Order, expectedStatus domain.PipelineStage) (*domain.Order, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var current domain.PipelineStage
	err = pgTx.QueryRowContext(ctx, `
		SELECT status
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, order.ID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if current != expectedStatus {
		return nil, store.ErrOrderNotProcessable
	}

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return nil, err
	}
	for i, item := range order.Items {
		details, err := json.Marshal(detailsOrEmpty(item.Details))
		if err != nil {
			return nil, err
		}
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, line_no, catalog_item_id, quantity, weight_kg, color, brand, material, details)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, order.ID, i, item.CatalogItemID, item.Quantity, item.WeightKg, item.Color, item.Brand, item.Material, details)
		if err != nil {
			return nil, err
		}
	}

	res, err := pgTx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, total_weight_kg = $3, laundry_price = $4, delivery_fee = $5, distance_km = $6,
			total_price = $7, total_is_partial = $8, processed_by = $9, processed_at = $10
		WHERE id = $1 AND status = $11
	`, order.ID, order.Status, order.TotalWeightKg, order.LaundryPrice, order.DeliveryFee, order.DistanceKm,
		order.TotalPrice, order.TotalIsPartial, nullIfEmpty(order.ProcessedBy), nullTime(order.ProcessedAt), expectedStatus)
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if affected == 0 {
		return nil, store.ErrOrderNotProcessable
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, order.ID)
}

func (s *Store) GetOutlet(ctx context.Context, id string) (*domain.Outlet, error) {
	var (
		outlet   domain.Outlet
		lat, lon sql.NullFloat64
		delivery domain.OutletDeliveryConfig
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, latitude, longitude, base_delivery_fee, per_km_rate, service_radius_km
		FROM outlets
		WHERE id = $1
	`, id).Scan(&outlet.ID, &outlet.Name, &outlet.Address, &lat, &lon, &delivery.BaseFee, &delivery.PerKmRate, &delivery.ServiceRadiusKm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if lat.Valid && lon.Valid {
		delivery.Location = domain.GeoPoint{Latitude: lat.Float64, Longitude: lon.Float64}
		outlet.Delivery = &delivery
	}
	return &outlet, nil
}

func (s *Store) ListCatalogItems(ctx context.Context) ([]domain.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pricing_mode, unit_price
		FROM catalog_items
		WHERE active = true
		ORDER BY pricing_mode, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0, 32)
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(&item.ID, &item.Name, &item.PricingMode, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListWorkProcesses(ctx context.Context, orderID string) ([]domain.WorkProcessRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, started_at, completed_at, worker_name, notes
		FROM work_processes
		WHERE order_id = $1
		ORDER BY started_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.WorkProcessRecord, 0, 4)
	for rows.Next() {
		var (
			record      domain.WorkProcessRecord
			completedAt sql.NullTime
			notes       sql.NullString
		)
		if err := rows.Scan(&record.Stage, &record.StartedAt, &completedAt, &record.WorkerName, &notes); err != nil {
			return nil, err
		}
		record.StartedAt = record.StartedAt.UTC()
		if completedAt.Valid {
			at := completedAt.Time.UTC()
			record.CompletedAt = &at
		}
		if notes.Valid {
			n := notes.String
			record.Notes = &n
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, outlet_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.OutletID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidOrder
	}
	if user.Role == "" {
		user.Role = domain.RoleWorker
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, outlet_id, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
	`, user.Username, user.Password, user.Role, user.OutletID, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidOrder
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, outlet_id, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.OutletID, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidOrder
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isSerializationFailure reports serialization_failure and deadlock_detected,
// both of which mean another writer processed the order first.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func detailsOrEmpty(details []domain.LineItemDetail) []domain.LineItemDetail {
	if details == nil {
		return []domain.LineItemDetail{}
	}
	return details
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
