// Package alerts manages price watches: users pick products to follow,
// the notifier turns price movements into notifications, and an email
// goes out when the account has an address on file.
package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trolley-backend/internal/db"
)

var tracer = otel.Tracer("services/alerts")

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrAlertExists          = errors.New("alert already exists for this product")
	ErrInvalidAlertType     = errors.New("alert_type must be price_drop, special or threshold")
	ErrNotificationNotFound = errors.New("notification not found")
)

type Service struct {
	db     *sql.DB
	sx     *sqlx.DB
	qry    *db.Queries
	mailer Mailer
}

// NewService creates an alerts service. A nil mailer disables email
// delivery; notifications rows are still written.
func NewService(database *sql.DB, mailer Mailer) Service {
	return Service{
		db:     database,
		sx:     sqlx.NewDb(database, "sqlite"),
		qry:    db.New(database),
		mailer: mailer,
	}
}

// Alert is a user's price watch on a product.
type Alert struct {
	ID                 int64   `json:"id"`
	ProductID          int64   `json:"product_id"`
	ProductName        string  `json:"product_name"`
	ProductBrand       *string `json:"product_brand"`
	AlertType          string  `json:"alert_type"`
	ThresholdCents     *int64  `json:"threshold_cents"`
	NotifyAnyDrop      bool    `json:"notify_any_drop"`
	NotifySpecial      bool    `json:"notify_special"`
	IsActive           bool    `json:"is_active"`
	LastPriceSeenCents *int64  `json:"last_price_seen_cents"`
	CreatedAt          string  `json:"created_at"`
}

// AlertCreate is the request body for creating an alert. AlertType
// defaults to price_drop and both notify flags default to on.
type AlertCreate struct {
	ProductID      int64  `json:"product_id"`
	AlertType      string `json:"alert_type"`
	ThresholdCents *int64 `json:"threshold_cents"`
	NotifyAnyDrop  *bool  `json:"notify_any_drop"`
	NotifySpecial  *bool  `json:"notify_special"`
}

// AlertPatch updates an alert. Nil fields are left unchanged.
type AlertPatch struct {
	ThresholdCents *int64 `json:"threshold_cents"`
	NotifyAnyDrop  *bool  `json:"notify_any_drop"`
	NotifySpecial  *bool  `json:"notify_special"`
	IsActive       *bool  `json:"is_active"`
}

func alertJSON(alert db.Alert, productName string, productBrand sql.NullString) Alert {
	return Alert{
		ID:                 alert.ID,
		ProductID:          alert.ProductID,
		ProductName:        productName,
		ProductBrand:       nullStr(productBrand),
		AlertType:          alert.AlertType,
		ThresholdCents:     nullInt(alert.ThresholdCents),
		NotifyAnyDrop:      alert.NotifyAnyDrop,
		NotifySpecial:      alert.NotifySpecial,
		IsActive:           alert.IsActive,
		LastPriceSeenCents: nullInt(alert.LastPriceSeenCents),
		CreatedAt:          alert.CreatedAt,
	}
}

// List returns the user's alerts, newest first.
func (service Service) List(ctx context.Context, userID int64, activeOnly bool) ([]Alert, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Bool("active_only", activeOnly),
	)

	rows, err := service.qry.ListAlertsForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	list := []Alert{}
	for _, row := range rows {
		if activeOnly && !row.IsActive {
			continue
		}
		list = append(list, Alert{
			ID:                 row.ID,
			ProductID:          row.ProductID,
			ProductName:        row.ProductName,
			ProductBrand:       nullStr(row.ProductBrand),
			AlertType:          row.AlertType,
			ThresholdCents:     nullInt(row.ThresholdCents),
			NotifyAnyDrop:      row.NotifyAnyDrop,
			NotifySpecial:      row.NotifySpecial,
			IsActive:           row.IsActive,
			LastPriceSeenCents: nullInt(row.LastPriceSeenCents),
			CreatedAt:          row.CreatedAt,
		})
	}
	return list, nil
}

// Create adds a price alert. A user can hold at most one active alert
// per product and type.
func (service Service) Create(ctx context.Context, userID int64, req AlertCreate) (Alert, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", req.ProductID),
	)

	fail := func(err error) (Alert, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Alert{}, err
	}

	alertType := req.AlertType
	if alertType == "" {
		alertType = "price_drop"
	}
	switch alertType {
	case "price_drop", "special", "threshold":
	default:
		return fail(ErrInvalidAlertType)
	}

	product, err := service.qry.GetProduct(ctx, req.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(ErrProductNotFound)
	} else if err != nil {
		return fail(err)
	}

	_, err = service.qry.GetActiveAlert(ctx, db.GetActiveAlertParams{
		UserID:    userID,
		ProductID: req.ProductID,
		AlertType: alertType,
	})
	if err == nil {
		return fail(ErrAlertExists)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fail(err)
	}

	notifyAnyDrop := true
	if req.NotifyAnyDrop != nil {
		notifyAnyDrop = *req.NotifyAnyDrop
	}
	notifySpecial := true
	if req.NotifySpecial != nil {
		notifySpecial = *req.NotifySpecial
	}

	var threshold sql.NullInt64
	if req.ThresholdCents != nil {
		threshold = sql.NullInt64{Int64: *req.ThresholdCents, Valid: true}
	}

	alert, err := service.qry.CreateAlert(ctx, db.CreateAlertParams{
		UserID:         userID,
		ProductID:      req.ProductID,
		AlertType:      alertType,
		ThresholdCents: threshold,
		NotifyAnyDrop:  notifyAnyDrop,
		NotifySpecial:  notifySpecial,
	})
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(attribute.Int64("alert_id", alert.ID))
	return alertJSON(alert, product.Name, product.Brand), nil
}

// ownedAlert loads an alert and checks it belongs to the user. Alerts
// owned by someone else report not found.
func (service Service) ownedAlert(ctx context.Context, userID, alertID int64) (db.Alert, error) {
	alert, err := service.qry.GetAlert(ctx, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Alert{}, ErrAlertNotFound
	} else if err != nil {
		return db.Alert{}, err
	}
	if alert.UserID != userID {
		return db.Alert{}, ErrAlertNotFound
	}
	return alert, nil
}

// Get returns a single alert owned by the user.
func (service Service) Get(ctx context.Context, userID, alertID int64) (Alert, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("alert_id", alertID),
	)

	fail := func(err error) (Alert, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Alert{}, err
	}

	alert, err := service.ownedAlert(ctx, userID, alertID)
	if err != nil {
		return fail(err)
	}
	product, err := service.qry.GetProduct(ctx, alert.ProductID)
	if err != nil {
		return fail(err)
	}
	return alertJSON(alert, product.Name, product.Brand), nil
}

// Update applies a patch to an alert owned by the user.
func (service Service) Update(ctx context.Context, userID, alertID int64, patch AlertPatch) (Alert, error) {
	ctx, span := tracer.Start(ctx, "Update")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("alert_id", alertID),
	)

	fail := func(err error) (Alert, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Alert{}, err
	}

	alert, err := service.ownedAlert(ctx, userID, alertID)
	if err != nil {
		return fail(err)
	}

	threshold := alert.ThresholdCents
	if patch.ThresholdCents != nil {
		threshold = sql.NullInt64{Int64: *patch.ThresholdCents, Valid: true}
	}
	notifyAnyDrop := alert.NotifyAnyDrop
	if patch.NotifyAnyDrop != nil {
		notifyAnyDrop = *patch.NotifyAnyDrop
	}
	notifySpecial := alert.NotifySpecial
	if patch.NotifySpecial != nil {
		notifySpecial = *patch.NotifySpecial
	}
	isActive := alert.IsActive
	if patch.IsActive != nil {
		isActive = *patch.IsActive
	}

	updated, err := service.qry.UpdateAlert(ctx, db.UpdateAlertParams{
		ThresholdCents: threshold,
		NotifyAnyDrop:  notifyAnyDrop,
		NotifySpecial:  notifySpecial,
		IsActive:       isActive,
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
		ID:             alert.ID,
	})
	if err != nil {
		return fail(err)
	}
	product, err := service.qry.GetProduct(ctx, updated.ProductID)
	if err != nil {
		return fail(err)
	}
	return alertJSON(updated, product.Name, product.Brand), nil
}

// Delete removes an alert owned by the user.
func (service Service) Delete(ctx context.Context, userID, alertID int64) error {
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("alert_id", alertID),
	)

	alert, err := service.ownedAlert(ctx, userID, alertID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	err = service.qry.DeleteAlert(ctx, alert.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// WatchState is the result of toggling a quick watch.
type WatchState struct {
	Watching  bool   `json:"watching"`
	ProductID int64  `json:"product_id"`
	AlertID   *int64 `json:"alert_id,omitempty"`
}

// Watch toggles a price_drop watch on a product: watching starts if no
// active watch exists, otherwise the existing watch is deactivated.
func (service Service) Watch(ctx context.Context, userID, productID int64) (WatchState, error) {
	ctx, span := tracer.Start(ctx, "Watch")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
	)

	fail := func(err error) (WatchState, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return WatchState{}, err
	}

	_, err := service.qry.GetProduct(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(ErrProductNotFound)
	} else if err != nil {
		return fail(err)
	}

	existing, err := service.qry.GetActiveAlert(ctx, db.GetActiveAlertParams{
		UserID:    userID,
		ProductID: productID,
		AlertType: "price_drop",
	})
	if err == nil {
		_, err = service.qry.UpdateAlert(ctx, db.UpdateAlertParams{
			ThresholdCents: existing.ThresholdCents,
			NotifyAnyDrop:  existing.NotifyAnyDrop,
			NotifySpecial:  existing.NotifySpecial,
			IsActive:       false,
			UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
			ID:             existing.ID,
		})
		if err != nil {
			return fail(err)
		}
		span.SetAttributes(attribute.Bool("watching", false))
		return WatchState{Watching: false, ProductID: productID}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fail(err)
	}

	alert, err := service.qry.CreateAlert(ctx, db.CreateAlertParams{
		UserID:        userID,
		ProductID:     productID,
		AlertType:     "price_drop",
		NotifyAnyDrop: true,
		NotifySpecial: true,
	})
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Bool("watching", true))
	return WatchState{Watching: true, ProductID: productID, AlertID: &alert.ID}, nil
}

// WatchStatus reports whether the user has an active price_drop watch
// on a product.
type WatchStatus struct {
	Watching bool   `json:"watching"`
	AlertID  *int64 `json:"alert_id"`
}

func (service Service) CheckWatch(ctx context.Context, userID, productID int64) (WatchStatus, error) {
	ctx, span := tracer.Start(ctx, "CheckWatch")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
	)

	alert, err := service.qry.GetActiveAlert(ctx, db.GetActiveAlertParams{
		UserID:    userID,
		ProductID: productID,
		AlertType: "price_drop",
	})
	if errors.Is(err, sql.ErrNoRows) {
		return WatchStatus{Watching: false}, nil
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return WatchStatus{}, err
	}
	return WatchStatus{Watching: true, AlertID: &alert.ID}, nil
}

// Notification is a stored alert event for a user.
type Notification struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   *string         `json:"message"`
	Data      json.RawMessage `json:"data"`
	ReadAt    *string         `json:"read_at"`
	CreatedAt string          `json:"created_at"`
}

func notificationJSON(row db.Notification) Notification {
	n := Notification{
		ID:        row.ID,
		Type:      row.Type,
		Title:     row.Title,
		Message:   nullStr(row.Message),
		ReadAt:    nullStr(row.ReadAt),
		CreatedAt: row.CreatedAt,
	}
	if row.Data.Valid {
		n.Data = json.RawMessage(row.Data.String)
	}
	return n
}

// Notifications returns the user's notifications, newest first.
func (service Service) Notifications(ctx context.Context, userID, limit int64, unreadOnly bool) ([]Notification, error) {
	ctx, span := tracer.Start(ctx, "Notifications")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Bool("unread_only", unreadOnly),
	)

	var rows []db.Notification
	var err error
	if unreadOnly {
		rows, err = service.qry.ListUnreadNotifications(ctx, db.ListUnreadNotificationsParams{
			UserID: userID,
			Limit:  limit,
		})
	} else {
		rows, err = service.qry.ListNotifications(ctx, db.ListNotificationsParams{
			UserID: userID,
			Limit:  limit,
		})
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	list := []Notification{}
	for _, row := range rows {
		list = append(list, notificationJSON(row))
	}
	return list, nil
}

// UnreadCount returns how many unread notifications the user has.
func (service Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "UnreadCount")
	defer span.End()

	count, err := service.qry.CountUnreadNotifications(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return count, nil
}

// MarkRead stamps a notification as read. The first read time is kept
// if the notification was already read.
func (service Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	ctx, span := tracer.Start(ctx, "MarkRead")
	defer span.End()
	span.SetAttributes(attribute.Int64("notification_id", notificationID))

	affected, err := service.qry.MarkNotificationRead(ctx, db.MarkNotificationReadParams{
		ReadAt: sql.NullString{String: time.Now().UTC().Format(time.RFC3339), Valid: true},
		ID:     notificationID,
		UserID: userID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead stamps every unread notification for the user.
func (service Service) MarkAllRead(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "MarkAllRead")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	err := service.qry.MarkAllNotificationsRead(ctx, db.MarkAllNotificationsReadParams{
		ReadAt: sql.NullString{String: time.Now().UTC().Format(time.RFC3339), Valid: true},
		UserID: userID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
