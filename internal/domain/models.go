package domain

import "time"

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OutletDeliveryConfig struct {
	Location        GeoPoint `json:"location"`
	BaseFee         int64    `json:"base_fee"`
	PerKmRate       int64    `json:"per_km_rate"`
	ServiceRadiusKm float64  `json:"service_radius_km"`
}

type Outlet struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Address  string                `json:"address"`
	Delivery *OutletDeliveryConfig `json:"delivery,omitempty"`
}

type PricingMode string

const (
	PricingPerPiece PricingMode = "PER_PIECE"
	PricingPerKg    PricingMode = "PER_KG"
)

func (m PricingMode) Valid() bool {
	switch m {
	case PricingPerPiece, PricingPerKg:
		return true
	default:
		return false
	}
}

type CatalogItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	PricingMode PricingMode `json:"pricing_mode"`
	UnitPrice   int64       `json:"unit_price"`
}

// LineItemDetail is a descriptive breakdown row (e.g. "shirt" x3) with no
// pricing effect.
type LineItemDetail struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type OrderLineItem struct {
	CatalogItemID string           `json:"catalog_item_id"`
	Quantity      int              `json:"quantity"`
	WeightKg      float64          `json:"weight_kg"`
	Color         string           `json:"color,omitempty"`
	Brand         string           `json:"brand,omitempty"`
	Material      string           `json:"material,omitempty"`
	Details       []LineItemDetail `json:"details,omitempty"`
}

type LineSubtotal struct {
	LineItemIndex int   `json:"line_item_index"`
	Subtotal      int64 `json:"subtotal"`
}

type OrderPricingResult struct {
	PerItemSubtotals []LineSubtotal    `json:"per_item_subtotals"`
	LaundrySubtotal  int64             `json:"laundry_subtotal"`
	TotalWeightKg    float64           `json:"total_weight_kg"`
	IsValid          bool              `json:"is_valid"`
	ValidationErrors map[string]string `json:"validation_errors"`
}

type DeliveryStatus string

const (
	DeliverySuccess     DeliveryStatus = "success"
	DeliveryUnavailable DeliveryStatus = "unavailable"
)

// DeliveryEstimate is a tagged union: DistanceKm and Fee are meaningful only
// when Status is DeliverySuccess, Reason only when it is DeliveryUnavailable.
type DeliveryEstimate struct {
	Status     DeliveryStatus `json:"status"`
	DistanceKm float64        `json:"distance_km"`
	Fee        int64          `json:"fee"`
	Reason     string         `json:"reason,omitempty"`
}

func (e DeliveryEstimate) IsAvailable() bool {
	return e.Status == DeliverySuccess
}

type WorkProcessStage string

const (
	WorkWashing WorkProcessStage = "WASHING"
	WorkIroning WorkProcessStage = "IRONING"
	WorkPacking WorkProcessStage = "PACKING"
)

type WorkProcessRecord struct {
	Stage       WorkProcessStage `json:"stage"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	WorkerName  string           `json:"worker_name"`
	Notes       *string          `json:"notes,omitempty"`
}

type PipelineStage string

const (
	StageWaitingForPickup  PipelineStage = "WAITING_FOR_PICKUP"
	StageDriverToCustomer  PipelineStage = "DRIVER_TO_CUSTOMER"
	StageDriverToOutlet    PipelineStage = "DRIVER_TO_OUTLET"
	StageArrivedAtOutlet   PipelineStage = "ARRIVED_AT_OUTLET"
	StageReadyForWashing   PipelineStage = "READY_FOR_WASHING"
	StageBeingWashed       PipelineStage = "BEING_WASHED"
	StageBeingIroned       PipelineStage = "BEING_IRONED"
	StageBeingPacked       PipelineStage = "BEING_PACKED"
	StageWaitingForPayment PipelineStage = "WAITING_FOR_PAYMENT"
	StageReadyForDelivery  PipelineStage = "READY_FOR_DELIVERY"
	StageBeingDelivered    PipelineStage = "BEING_DELIVERED"
	StageCompleted         PipelineStage = "COMPLETED"
)

type TimelineClassification string

const (
	TimelineCompleted TimelineClassification = "COMPLETED"
	TimelineCurrent   TimelineClassification = "CURRENT"
	TimelineSkipped   TimelineClassification = "SKIPPED"
	TimelinePending   TimelineClassification = "PENDING"
)

type TimelineEntry struct {
	Stage          PipelineStage          `json:"stage"`
	Classification TimelineClassification `json:"classification"`
	OccurredAt     *time.Time             `json:"occurred_at"`
	Actor          *string                `json:"actor"`
	Note           *string                `json:"note"`
}

type TimelineEventKind string

const (
	EventOrderCreated   TimelineEventKind = "order_created"
	EventStageStarted   TimelineEventKind = "stage_started"
	EventStageCompleted TimelineEventKind = "stage_completed"
)

// TimelineEvent is one historical fact placed on the pipeline.
type TimelineEvent struct {
	Stage      PipelineStage     `json:"stage"`
	Kind       TimelineEventKind `json:"kind"`
	OccurredAt time.Time         `json:"occurred_at"`
	Actor      string            `json:"actor"`
	Note       *string           `json:"note"`
}

type Order struct {
	ID               string          `json:"id"`
	OutletID         string          `json:"outlet_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerUsername string          `json:"customer_username,omitempty"`
	CustomerLocation *GeoPoint       `json:"customer_location,omitempty"`
	Status           PipelineStage   `json:"status"`
	Items            []OrderLineItem `json:"items,omitempty"`
	TotalWeightKg    float64         `json:"total_weight_kg"`
	LaundryPrice     int64           `json:"laundry_price"`
	DeliveryFee      int64           `json:"delivery_fee"`
	DistanceKm       float64         `json:"distance_km"`
	TotalPrice       int64           `json:"total_price"`
	TotalIsPartial   bool            `json:"total_is_partial"`
	ProcessedBy      string          `json:"processed_by,omitempty"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type ProcessOrderRequest struct {
	Items         []OrderLineItem `json:"items"`
	TotalWeightKg *float64        `json:"total_weight_kg,omitempty"`
}

// OrderQuote is the payable amount derived from pricing plus delivery. When
// the delivery estimate is unavailable PayableTotal is the laundry subtotal
// alone and TotalIsPartial is set.
type OrderQuote struct {
	OrderID             string             `json:"order_id"`
	Pricing             OrderPricingResult `json:"pricing"`
	Delivery            DeliveryEstimate   `json:"delivery"`
	WithinServiceRadius *bool              `json:"within_service_radius,omitempty"`
	PayableTotal        int64              `json:"payable_total"`
	TotalIsPartial      bool               `json:"total_is_partial"`
}

type ProcessOrderResponse struct {
	OrderQuote
	Status      PipelineStage `json:"status"`
	ProcessedAt string        `json:"processed_at"`
}

type DeliveryEstimateResponse struct {
	OrderID             string           `json:"order_id"`
	Estimate            DeliveryEstimate `json:"estimate"`
	WithinServiceRadius *bool            `json:"within_service_radius,omitempty"`
}

type OrderTimelineResponse struct {
	OrderID        string          `json:"order_id"`
	CurrentStatus  PipelineStage   `json:"current_status"`
	Timeline       []TimelineEntry `json:"timeline"`
	RecentActivity []TimelineEvent `json:"recent_activity"`
}

type OrderProcessedEvent struct {
	OrderID        string    `json:"order_id"`
	OutletID       string    `json:"outlet_id"`
	LaundryPrice   int64     `json:"laundry_price"`
	DeliveryFee    int64     `json:"delivery_fee"`
	TotalPrice     int64     `json:"total_price"`
	TotalIsPartial bool      `json:"total_is_partial"`
	ProcessedBy    string    `json:"processed_by"`
	ProcessedAt    time.Time `json:"processed_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	OutletID    string `json:"outlet_id,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	OutletID string `json:"outlet_id"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	OutletID  string    `json:"outlet_id,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Actor struct {
	Username string
	Role     string
	OutletID string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	OutletID  string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	OutletID      string    `json:"outlet_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	RoleSuperAdmin  = "super_admin"
	RoleOutletAdmin = "outlet_admin"
	RoleWorker      = "worker"
	RoleDriver      = "driver"
	RoleCustomer    = "customer"
)
