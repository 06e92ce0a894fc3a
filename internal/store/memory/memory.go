package memory

import (
	"cmp"
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"laundryops/internal/domain"
	"laundryops/internal/store"
	"laundryops/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	outlets         map[string]domain.Outlet
	catalog         map[string]domain.CatalogItem
	orders          map[string]*domain.Order
	workProcesses   map[string][]domain.WorkProcessRecord
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		outlets:         make(map[string]domain.Outlet),
		catalog:         make(map[string]domain.CatalogItem),
		orders:          make(map[string]*domain.Order),
		workProcesses:   make(map[string][]domain.WorkProcessRecord),
		auditLogs:       make([]domain.AuditLog, 0, 64),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Passwords come from SEED_ADMIN_PASSWORD and SEED_WORKER_PASSWORD and fall
// back to dev defaults with a warning.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	workerPwd := envOr("SEED_WORKER_PASSWORD", "worker123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_WORKER_PASSWORD") == "" {
		slog.Warn("memory store using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_WORKER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
		outletID string
	}{
		{"superadmin", adminPwd, domain.RoleSuperAdmin, ""},
		{"admin-kemang", adminPwd, domain.RoleOutletAdmin, "outlet-kemang"},
		{"admin-depok", adminPwd, domain.RoleOutletAdmin, "outlet-depok"},
		{"worker-kemang", workerPwd, domain.RoleWorker, "outlet-kemang"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("failed to hash seed password", "username", u.username, "error", err)
			os.Exit(1)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			OutletID:  u.outletID,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store with two outlets, a small catalog and orders in
// several lifecycle states.
func NewSeeded() *Store {
	s := New()

	s.outlets["outlet-kemang"] = domain.Outlet{
		ID:      "outlet-kemang",
		Name:    "Laundry Kemang",
		Address: "Jl. Kemang Raya No. 12, Jakarta Selatan",
		Delivery: &domain.OutletDeliveryConfig{
			Location:        domain.GeoPoint{Latitude: -6.2607, Longitude: 106.8137},
			BaseFee:         5000,
			PerKmRate:       2500,
			ServiceRadiusKm: 8,
		},
	}
	s.outlets["outlet-depok"] = domain.Outlet{
		ID:      "outlet-depok",
		Name:    "Laundry Depok",
		Address: "Jl. Margonda Raya No. 88, Depok",
	}

	for _, item := range []domain.CatalogItem{
		{ID: "cat-regular-kg", Name: "Regular Wash & Fold", PricingMode: domain.PricingPerKg, UnitPrice: 7000},
		{ID: "cat-express-kg", Name: "Express Wash & Fold", PricingMode: domain.PricingPerKg, UnitPrice: 12000},
		{ID: "cat-shirt", Name: "Shirt", PricingMode: domain.PricingPerPiece, UnitPrice: 5000},
		{ID: "cat-suit", Name: "Suit", PricingMode: domain.PricingPerPiece, UnitPrice: 25000},
		{ID: "cat-bedcover", Name: "Bed Cover", PricingMode: domain.PricingPerPiece, UnitPrice: 35000},
	} {
		s.catalog[item.ID] = item
	}

	now := time.Now().UTC().Truncate(time.Second)
	created := now.Add(-26 * time.Hour)
	notes := "separate whites"
	washedAt := created.Add(20 * time.Hour)

	for _, order := range []domain.Order{
		{
			ID:               "ord-1001",
			OutletID:         "outlet-kemang",
			CustomerName:     "Rina",
			CustomerUsername: "rina",
			CustomerLocation: &domain.GeoPoint{Latitude: -6.2441, Longitude: 106.8001},
			Status:           domain.StageArrivedAtOutlet,
			CreatedAt:        created,
		},
		{
			ID:               "ord-1002",
			OutletID:         "outlet-kemang",
			CustomerName:     "Andi",
			CustomerUsername: "andi",
			Status:           domain.StageArrivedAtOutlet,
			CreatedAt:        created.Add(time.Hour),
		},
		{
			ID:               "ord-1003",
			OutletID:         "outlet-kemang",
			CustomerName:     "Maya",
			CustomerUsername: "maya",
			CustomerLocation: &domain.GeoPoint{Latitude: -6.2297, Longitude: 106.8295},
			Status:           domain.StageBeingIroned,
			TotalWeightKg:    4,
			LaundryPrice:     28000,
			DeliveryFee:      13875,
			DistanceKm:       3.6,
			TotalPrice:       41875,
			CreatedAt:        created,
		},
		{
			ID:               "ord-1004",
			OutletID:         "outlet-depok",
			CustomerName:     "Yusuf",
			CustomerUsername: "yusuf",
			CustomerLocation: &domain.GeoPoint{Latitude: -6.3728, Longitude: 106.8346},
			Status:           domain.StageArrivedAtOutlet,
			CreatedAt:        now.Add(-3 * time.Hour),
		},
		{
			ID:               "ord-1005",
			OutletID:         "outlet-kemang",
			CustomerName:     "Lia",
			CustomerUsername: "lia",
			Status:           domain.StageWaitingForPickup,
			CreatedAt:        now.Add(-time.Hour),
		},
	} {
		o := order
		s.orders[o.ID] = &o
	}

	s.workProcesses["ord-1003"] = []domain.WorkProcessRecord{
		{Stage: domain.WorkWashing, StartedAt: created.Add(18 * time.Hour), CompletedAt: &washedAt, WorkerName: "worker-kemang", Notes: &notes},
		{Stage: domain.WorkIroning, StartedAt: created.Add(22 * time.Hour), WorkerName: "worker-kemang"},
	}

	s.usersByUsername = seedUsers()
	return s
}

// PutOrder inserts or replaces an order.
func (s *Store) PutOrder(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = cloneOrder(&order)
}

func (s *Store) PutOutlet(outlet domain.Outlet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outlets[outlet.ID] = outlet
}

func (s *Store) PutCatalogItem(item domain.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[item.ID] = item
}

func (s *Store) AppendWorkProcess(orderID string, record domain.WorkProcessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workProcesses[orderID] = append(s.workProcesses[orderID], record)
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) SaveProcessedOrder(_ context.Context, order domain.Order, expectedStatus domain.PipelineStage) (*domain.Order, error) {
	if order.ID == "" || len(order.Items) == 0 {
		return nil, store.ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.orders[order.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if existing.Status != expectedStatus {
		return nil, store.ErrOrderNotProcessable
	}

	saved := cloneOrder(&order)
	saved.OutletID = existing.OutletID
	saved.CustomerName = existing.CustomerName
	saved.CustomerUsername = existing.CustomerUsername
	saved.CustomerLocation = existing.CustomerLocation
	saved.CreatedAt = existing.CreatedAt
	s.orders[order.ID] = saved
	return cloneOrder(saved), nil
}

func (s *Store) GetOutlet(_ context.Context, id string) (*domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outlet, exists := s.outlets[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if outlet.Delivery != nil {
		delivery := *outlet.Delivery
		outlet.Delivery = &delivery
	}
	return &outlet, nil
}

func (s *Store) ListCatalogItems(_ context.Context) ([]domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.CatalogItem, 0, len(s.catalog))
	for _, item := range s.catalog {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.CatalogItem) int {
		if a.PricingMode == b.PricingMode {
			return cmp.Compare(a.Name, b.Name)
		}
		return cmp.Compare(a.PricingMode, b.PricingMode)
	})
	return items, nil
}

func (s *Store) ListWorkProcesses(_ context.Context, orderID string) ([]domain.WorkProcessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.workProcesses[orderID]
	out := make([]domain.WorkProcessRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

// AuditLogs returns a copy of every audit entry in insertion order.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditLog, len(s.auditLogs))
	copy(out, s.auditLogs)
	return out
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidOrder
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidOrder
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleWorker
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidOrder
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneOrder(src *domain.Order) *domain.Order {
	if src == nil {
		return nil
	}
	dup := *src
	if src.Items != nil {
		dup.Items = make([]domain.OrderLineItem, len(src.Items))
		for i, item := range src.Items {
			item.Details = slices.Clone(item.Details)
			dup.Items[i] = item
		}
	}
	if src.CustomerLocation != nil {
		loc := *src.CustomerLocation
		dup.CustomerLocation = &loc
	}
	if src.ProcessedAt != nil {
		at := *src.ProcessedAt
		dup.ProcessedAt = &at
	}
	return &dup
}
