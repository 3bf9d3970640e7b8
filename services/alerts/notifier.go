package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
	"trolley-backend/services/auth"
)

// latestPriceRow is a store's newest observation for a product.
type latestPriceRow struct {
	PriceCents int64  `db:"price_cents"`
	IsSpecial  bool   `db:"is_special"`
	StoreID    int64  `db:"store_id"`
	StoreName  string `db:"store_name"`
	StoreSlug  string `db:"store_slug"`
}

func (service Service) latestPrices(ctx context.Context, productID int64) ([]latestPriceRow, error) {
	query := `SELECT pr.price_cents, pr.is_special, sp.store_id,
		s.name AS store_name, s.slug AS store_slug
		FROM prices pr
		JOIN store_products sp ON sp.id = pr.store_product_id
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.product_id = ?
		ORDER BY pr.recorded_at DESC, pr.id DESC`

	var rows []latestPriceRow
	if err := service.sx.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, err
	}
	seen := map[int64]bool{}
	latest := []latestPriceRow{}
	for _, row := range rows {
		if seen[row.StoreID] {
			continue
		}
		seen[row.StoreID] = true
		latest = append(latest, row)
	}
	return latest, nil
}

func cheapestPrice(rows []latestPriceRow) (latestPriceRow, bool) {
	var best latestPriceRow
	found := false
	for _, row := range rows {
		if row.PriceCents <= 0 {
			continue
		}
		if !found || row.PriceCents < best.PriceCents {
			best = row
			found = true
		}
	}
	return best, found
}

type alertEvent struct {
	Type          string
	Title         string
	Message       string
	CurrentCents  int64
	PreviousCents *int64
}

// evaluateAlert decides whether the cheapest current price warrants a
// notification. Threshold crossings win over drops, drops over specials.
func evaluateAlert(alert db.ListActiveAlertsRow, best latestPriceRow) *alertEvent {
	current := best.PriceCents
	last := alert.LastPriceSeenCents

	if alert.AlertType == "threshold" && alert.ThresholdCents.Valid &&
		current <= alert.ThresholdCents.Int64 &&
		(!last.Valid || last.Int64 > alert.ThresholdCents.Int64) {
		return &alertEvent{
			Type:         "threshold",
			Title:        fmt.Sprintf("%s is under %s", alert.ProductName, money.FormatCents(alert.ThresholdCents.Int64)),
			Message:      fmt.Sprintf("Now %s at %s.", money.FormatCents(current), best.StoreName),
			CurrentCents: current,
		}
	}
	if alert.NotifyAnyDrop && last.Valid && current < last.Int64 {
		previous := last.Int64
		return &alertEvent{
			Type:          "price_drop",
			Title:         fmt.Sprintf("Price drop on %s", alert.ProductName),
			Message:       fmt.Sprintf("Down from %s to %s at %s.", money.FormatCents(previous), money.FormatCents(current), best.StoreName),
			CurrentCents:  current,
			PreviousCents: &previous,
		}
	}
	if alert.NotifySpecial && best.IsSpecial && (!last.Valid || current != last.Int64) {
		return &alertEvent{
			Type:         "special",
			Title:        fmt.Sprintf("%s is on special", alert.ProductName),
			Message:      fmt.Sprintf("Now %s at %s.", money.FormatCents(current), best.StoreName),
			CurrentCents: current,
		}
	}
	return nil
}

type eventData struct {
	ProductID     int64  `json:"product_id"`
	PriceCents    int64  `json:"price_cents"`
	PreviousCents *int64 `json:"previous_cents,omitempty"`
	Store         string `json:"store"`
}

// CheckResult summarises a notifier run.
type CheckResult struct {
	Evaluated int `json:"evaluated"`
	Notified  int `json:"notified"`
	Emailed   int `json:"emailed"`
}

// CheckPrices evaluates every active alert against the newest store
// prices. It runs after each ingest. Each alert notifies at most once
// per 24 hours; alerts belonging to lapsed subscriptions are skipped
// since alerts are a premium feature.
func (service Service) CheckPrices(ctx context.Context) (CheckResult, error) {
	ctx, span := tracer.Start(ctx, "CheckPrices")
	defer span.End()

	fail := func(err error) (CheckResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CheckResult{}, err
	}

	alerts, err := service.qry.ListActiveAlerts(ctx)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("active_alerts", len(alerts)))

	now := time.Now().UTC()
	priceCache := map[int64][]latestPriceRow{}
	var result CheckResult

	for _, alert := range alerts {
		subscriber := db.User{
			SubscriptionStatus: alert.SubscriptionStatus,
			SubscriptionEndsAt: alert.SubscriptionEndsAt,
		}
		if !auth.IsPremium(subscriber) {
			continue
		}
		if alert.LastNotifiedAt.Valid {
			notifiedAt, err := time.Parse(time.RFC3339, alert.LastNotifiedAt.String)
			if err == nil && now.Sub(notifiedAt) < 24*time.Hour {
				continue
			}
		}

		prices, ok := priceCache[alert.ProductID]
		if !ok {
			prices, err = service.latestPrices(ctx, alert.ProductID)
			if err != nil {
				return fail(err)
			}
			priceCache[alert.ProductID] = prices
		}
		best, ok := cheapestPrice(prices)
		if !ok {
			continue
		}
		result.Evaluated++

		event := evaluateAlert(alert, best)
		if event == nil {
			// Track the price between notifications so the next drop
			// is measured against what the user last saw.
			if !alert.LastPriceSeenCents.Valid || alert.LastPriceSeenCents.Int64 != best.PriceCents {
				err = service.qry.UpdateAlertLastSeen(ctx, db.UpdateAlertLastSeenParams{
					LastPriceSeenCents: sql.NullInt64{Int64: best.PriceCents, Valid: true},
					ID:                 alert.ID,
				})
				if err != nil {
					return fail(err)
				}
			}
			continue
		}

		data, err := json.Marshal(eventData{
			ProductID:     alert.ProductID,
			PriceCents:    event.CurrentCents,
			PreviousCents: event.PreviousCents,
			Store:         best.StoreSlug,
		})
		if err != nil {
			return fail(err)
		}

		tx, err := service.db.BeginTx(ctx, nil)
		if err != nil {
			return fail(err)
		}
		qry := service.qry.WithTx(tx)
		_, err = qry.CreateNotification(ctx, db.CreateNotificationParams{
			UserID:  alert.UserID,
			AlertID: sql.NullInt64{Int64: alert.ID, Valid: true},
			Type:    event.Type,
			Title:   event.Title,
			Message: sql.NullString{String: event.Message, Valid: true},
			Data:    sql.NullString{String: string(data), Valid: true},
		})
		if err != nil {
			tx.Rollback()
			return fail(err)
		}
		err = qry.MarkAlertNotified(ctx, db.MarkAlertNotifiedParams{
			LastNotifiedAt:     sql.NullString{String: now.Format(time.RFC3339), Valid: true},
			LastPriceSeenCents: sql.NullInt64{Int64: event.CurrentCents, Valid: true},
			ID:                 alert.ID,
		})
		if err != nil {
			tx.Rollback()
			return fail(err)
		}
		if err := tx.Commit(); err != nil {
			return fail(err)
		}
		result.Notified++

		if service.mailer != nil && alert.UserEmail.Valid && alert.UserEmail.String != "" {
			err := service.mailer.Send(alert.UserEmail.String, event.Title, event.Message)
			if err != nil {
				// email failures don't abort the run
				span.RecordError(err)
				continue
			}
			result.Emailed++
		}
	}

	span.SetAttributes(
		attribute.Int("evaluated", result.Evaluated),
		attribute.Int("notified", result.Notified),
		attribute.Int("emailed", result.Emailed),
	)
	return result, nil
}
