package alerts

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/testutil"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func setup(t testing.TB) (Service, *db.Queries, *recordingMailer, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/alerts",
		DbSchema: db.Schema,
	})
	mailer := &recordingMailer{}
	return NewService(res.DB, mailer), db.New(res.DB), mailer, cleanup
}

func addUser(t testing.TB, qry *db.Queries, name string) db.User {
	user, err := qry.CreateUser(context.Background(), db.CreateUserParams{
		Email:       sql.NullString{String: name + "@email.com", Valid: true},
		DisplayName: sql.NullString{String: name, Valid: true},
	})
	require.NoError(t, err)
	return user
}

func makePremium(t testing.TB, service Service, userID int64) {
	_, err := service.db.Exec("UPDATE users SET subscription_status = 'active' WHERE id = ?", userID)
	require.NoError(t, err)
}

func addProduct(t testing.TB, qry *db.Queries, name, brand string) db.Product {
	params := db.CreateProductParams{Name: name}
	if brand != "" {
		params.Brand = sql.NullString{String: brand, Valid: true}
	}
	product, err := qry.CreateProduct(context.Background(), params)
	require.NoError(t, err)
	return product
}

func addStore(t testing.TB, qry *db.Queries, name, slug string) db.Store {
	store, err := qry.CreateStore(context.Background(), db.CreateStoreParams{Name: name, Slug: slug})
	require.NoError(t, err)
	return store
}

func addPriceAt(t testing.TB, qry *db.Queries, productID, storeID, cents int64, at time.Time, special bool) {
	ctx := context.Background()
	storeProduct, err := qry.GetStoreProduct(ctx, db.GetStoreProductParams{ProductID: productID, StoreID: storeID})
	if errors.Is(err, sql.ErrNoRows) {
		storeProduct, err = qry.CreateStoreProduct(ctx, db.CreateStoreProductParams{
			ProductID: productID,
			StoreID:   storeID,
		})
	}
	require.NoError(t, err)
	_, err = qry.InsertPrice(ctx, db.InsertPriceParams{
		StoreProductID: storeProduct.ID,
		PriceCents:     cents,
		IsSpecial:      special,
		Source:         "scraper",
		RecordedAt:     at.Format(time.RFC3339),
	})
	require.NoError(t, err)
}

func TestCreateAndListAlerts(t *testing.T) {
	service, qry, _, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	cheese := addProduct(t, qry, "Tasty Cheese Block", "Bega")
	alice := addUser(t, qry, "alice")

	threshold := int64(800)
	created, err := service.Create(ctx, alice.ID, AlertCreate{
		ProductID:      cheese.ID,
		AlertType:      "threshold",
		ThresholdCents: &threshold,
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Tasty Cheese Block", created.ProductName)
	require.Equal(t, "Bega", *created.ProductBrand)
	require.Equal(t, "threshold", created.AlertType)
	require.EqualValues(t, 800, *created.ThresholdCents)
	require.True(t, created.NotifyAnyDrop)
	require.True(t, created.NotifySpecial)
	require.True(t, created.IsActive)
	require.Nil(t, created.LastPriceSeenCents)

	// one active alert per product and type
	_, err = service.Create(ctx, alice.ID, AlertCreate{ProductID: cheese.ID, AlertType: "threshold"})
	require.ErrorIs(t, err, ErrAlertExists)

	// a different type on the same product is fine
	off := false
	drop, err := service.Create(ctx, alice.ID, AlertCreate{
		ProductID:     cheese.ID,
		NotifySpecial: &off,
	})
	require.NoError(t, err)
	require.Equal(t, "price_drop", drop.AlertType)
	require.False(t, drop.NotifySpecial)

	_, err = service.Create(ctx, alice.ID, AlertCreate{ProductID: 99999})
	require.ErrorIs(t, err, ErrProductNotFound)
	_, err = service.Create(ctx, alice.ID, AlertCreate{ProductID: cheese.ID, AlertType: "lotto"})
	require.ErrorIs(t, err, ErrInvalidAlertType)

	list, err := service.List(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, drop.ID, list[0].ID)
	require.Equal(t, created.ID, list[1].ID)

	// deactivated alerts only show up with active_only off
	no := false
	_, err = service.Update(ctx, alice.ID, drop.ID, AlertPatch{IsActive: &no})
	require.NoError(t, err)

	list, err = service.List(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = service.List(ctx, alice.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestAlertOwnership(t *testing.T) {
	service, qry, _, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	milk := addProduct(t, qry, "Full Cream Milk", "")
	alice := addUser(t, qry, "alice")
	bob := addUser(t, qry, "bob")

	alert, err := service.Create(ctx, alice.ID, AlertCreate{ProductID: milk.ID})
	if err != nil {
		t.Fatal(err)
	}

	_, err = service.Get(ctx, bob.ID, alert.ID)
	require.ErrorIs(t, err, ErrAlertNotFound)
	_, err = service.Update(ctx, bob.ID, alert.ID, AlertPatch{})
	require.ErrorIs(t, err, ErrAlertNotFound)
	err = service.Delete(ctx, bob.ID, alert.ID)
	require.ErrorIs(t, err, ErrAlertNotFound)

	got, err := service.Get(ctx, alice.ID, alert.ID)
	require.NoError(t, err)
	require.Equal(t, alert.ID, got.ID)
	require.Nil(t, got.ProductBrand)

	threshold := int64(450)
	updated, err := service.Update(ctx, alice.ID, alert.ID, AlertPatch{ThresholdCents: &threshold})
	require.NoError(t, err)
	require.EqualValues(t, 450, *updated.ThresholdCents)
	// untouched fields carry over
	require.True(t, updated.NotifyAnyDrop)
	require.True(t, updated.IsActive)

	err = service.Delete(ctx, alice.ID, alert.ID)
	require.NoError(t, err)
	_, err = service.Get(ctx, alice.ID, alert.ID)
	require.ErrorIs(t, err, ErrAlertNotFound)
}

func TestQuickWatch(t *testing.T) {
	service, qry, _, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	bread := addProduct(t, qry, "Wholemeal Bread", "")
	alice := addUser(t, qry, "alice")

	state, err := service.Watch(ctx, alice.ID, bread.ID)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, state.Watching)
	require.NotNil(t, state.AlertID)

	status, err := service.CheckWatch(ctx, alice.ID, bread.ID)
	require.NoError(t, err)
	require.True(t, status.Watching)
	require.Equal(t, *state.AlertID, *status.AlertID)

	// second toggle deactivates the watch
	state, err = service.Watch(ctx, alice.ID, bread.ID)
	require.NoError(t, err)
	require.False(t, state.Watching)
	require.Nil(t, state.AlertID)

	status, err = service.CheckWatch(ctx, alice.ID, bread.ID)
	require.NoError(t, err)
	require.False(t, status.Watching)
	require.Nil(t, status.AlertID)

	_, err = service.Watch(ctx, alice.ID, 99999)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestNotificationsFlow(t *testing.T) {
	service, qry, _, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	alice := addUser(t, qry, "alice")
	bob := addUser(t, qry, "bob")

	first, err := qry.CreateNotification(ctx, db.CreateNotificationParams{
		UserID: alice.ID,
		Type:   "price_drop",
		Title:  "Price drop on Full Cream Milk",
		Data:   sql.NullString{String: `{"price_cents":450}`, Valid: true},
	})
	require.NoError(t, err)
	second, err := qry.CreateNotification(ctx, db.CreateNotificationParams{
		UserID: alice.ID,
		Type:   "special",
		Title:  "Tim Tams are on special",
	})
	require.NoError(t, err)

	list, err := service.Notifications(ctx, alice.ID, 20, false)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.JSONEq(t, `{"price_cents":450}`, string(list[1].Data))
	require.Nil(t, list[1].ReadAt)

	count, err := service.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	err = service.MarkRead(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	// the stamp sticks, marking again reports not found
	err = service.MarkRead(ctx, alice.ID, first.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
	// and nobody can read someone else's notification
	err = service.MarkRead(ctx, bob.ID, second.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	unread, err := service.Notifications(ctx, alice.ID, 20, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, second.ID, unread[0].ID)

	err = service.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	count, err = service.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestEvaluateAlert(t *testing.T) {
	seen := func(cents int64) sql.NullInt64 {
		return sql.NullInt64{Int64: cents, Valid: true}
	}
	base := db.ListActiveAlertsRow{
		AlertType:     "price_drop",
		NotifyAnyDrop: true,
		NotifySpecial: true,
		ProductName:   "Full Cream Milk",
	}
	woolworths := latestPriceRow{StoreName: "Woolworths", StoreSlug: "woolworths"}

	t.Run("first sighting sets no drop", func(t *testing.T) {
		best := woolworths
		best.PriceCents = 500
		require.Nil(t, evaluateAlert(base, best))
	})

	t.Run("drop between checks", func(t *testing.T) {
		alert := base
		alert.LastPriceSeenCents = seen(500)
		best := woolworths
		best.PriceCents = 450
		event := evaluateAlert(alert, best)
		require.NotNil(t, event)
		require.Equal(t, "price_drop", event.Type)
		require.Equal(t, "Price drop on Full Cream Milk", event.Title)
		require.Equal(t, "Down from $5.00 to $4.50 at Woolworths.", event.Message)
		require.EqualValues(t, 500, *event.PreviousCents)
	})

	t.Run("rise is quiet", func(t *testing.T) {
		alert := base
		alert.LastPriceSeenCents = seen(500)
		best := woolworths
		best.PriceCents = 550
		require.Nil(t, evaluateAlert(alert, best))
	})

	t.Run("new special", func(t *testing.T) {
		alert := base
		alert.NotifyAnyDrop = false
		best := woolworths
		best.PriceCents = 400
		best.IsSpecial = true
		event := evaluateAlert(alert, best)
		require.NotNil(t, event)
		require.Equal(t, "special", event.Type)
		require.Equal(t, "Full Cream Milk is on special", event.Title)
	})

	t.Run("unchanged special is quiet", func(t *testing.T) {
		alert := base
		alert.NotifyAnyDrop = false
		alert.LastPriceSeenCents = seen(400)
		best := woolworths
		best.PriceCents = 400
		best.IsSpecial = true
		require.Nil(t, evaluateAlert(alert, best))
	})

	t.Run("threshold crossing", func(t *testing.T) {
		alert := base
		alert.AlertType = "threshold"
		alert.ThresholdCents = seen(300)
		alert.LastPriceSeenCents = seen(350)
		best := woolworths
		best.PriceCents = 295
		event := evaluateAlert(alert, best)
		require.NotNil(t, event)
		require.Equal(t, "threshold", event.Type)
		require.Equal(t, "Full Cream Milk is under $3.00", event.Title)
	})

	t.Run("already below threshold stays quiet", func(t *testing.T) {
		alert := base
		alert.AlertType = "threshold"
		alert.NotifyAnyDrop = false
		alert.ThresholdCents = seen(300)
		alert.LastPriceSeenCents = seen(295)
		best := woolworths
		best.PriceCents = 290
		require.Nil(t, evaluateAlert(alert, best))
	})

	t.Run("threshold beats drop", func(t *testing.T) {
		alert := base
		alert.AlertType = "threshold"
		alert.ThresholdCents = seen(300)
		alert.LastPriceSeenCents = seen(350)
		best := woolworths
		best.PriceCents = 250
		event := evaluateAlert(alert, best)
		require.NotNil(t, event)
		require.Equal(t, "threshold", event.Type)
	})
}

func TestCheckPrices(t *testing.T) {
	service, qry, mailer, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths := addStore(t, qry, "Woolworths", "woolworths")
	milk := addProduct(t, qry, "Full Cream Milk", "")
	alice := addUser(t, qry, "alice")
	makePremium(t, service, alice.ID)
	bob := addUser(t, qry, "bob")

	_, err := service.Watch(ctx, alice.ID, milk.ID)
	require.NoError(t, err)
	// bob never upgraded, so his watch stays silent
	_, err = service.Watch(ctx, bob.ID, milk.ID)
	require.NoError(t, err)

	start := time.Now().UTC().Add(-2 * time.Hour)
	addPriceAt(t, qry, milk.ID, woolworths.ID, 500, start, false)

	// first run only records the baseline
	result, err := service.CheckPrices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, result.Evaluated)
	require.Equal(t, 0, result.Notified)

	aliceAlerts, err := service.List(ctx, alice.ID, true)
	require.NoError(t, err)
	require.EqualValues(t, 500, *aliceAlerts[0].LastPriceSeenCents)

	// the price drops and alice hears about it
	addPriceAt(t, qry, milk.ID, woolworths.ID, 450, start.Add(time.Hour), false)
	result, err = service.CheckPrices(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Notified)
	require.Equal(t, 1, result.Emailed)

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "alice@email.com", mailer.sent[0].To)
	require.Equal(t, "Price drop on Full Cream Milk", mailer.sent[0].Subject)
	require.Equal(t, "Down from $5.00 to $4.50 at Woolworths.", mailer.sent[0].Body)

	notifications, err := service.Notifications(ctx, alice.ID, 20, false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "price_drop", notifications[0].Type)
	require.JSONEq(t,
		`{"product_id":`+itoa(milk.ID)+`,"price_cents":450,"previous_cents":500,"store":"woolworths"}`,
		string(notifications[0].Data))

	bobNotifications, err := service.Notifications(ctx, bob.ID, 20, false)
	require.NoError(t, err)
	require.Empty(t, bobNotifications)

	// a second drop inside the 24 hour window is deduped
	addPriceAt(t, qry, milk.ID, woolworths.ID, 400, start.Add(90*time.Minute), false)
	result, err = service.CheckPrices(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Notified)
	require.Len(t, mailer.sent, 1)
}

func TestCheckPricesThreshold(t *testing.T) {
	service, qry, mailer, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	coles := addStore(t, qry, "Coles", "coles")
	butter := addProduct(t, qry, "Salted Butter", "Western Star")
	carol := addUser(t, qry, "carol")
	makePremium(t, service, carol.ID)

	off := false
	threshold := int64(300)
	alert, err := service.Create(ctx, carol.ID, AlertCreate{
		ProductID:      butter.ID,
		AlertType:      "threshold",
		ThresholdCents: &threshold,
		NotifyAnyDrop:  &off,
		NotifySpecial:  &off,
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now().UTC().Add(-3 * time.Hour)
	addPriceAt(t, qry, butter.ID, coles.ID, 350, start, false)
	result, err := service.CheckPrices(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Notified)

	addPriceAt(t, qry, butter.ID, coles.ID, 295, start.Add(time.Hour), false)
	result, err = service.CheckPrices(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Notified)
	require.Equal(t, "Salted Butter is under $3.00", mailer.sent[0].Subject)

	// age the notification stamp, then drop further below the
	// threshold: no second crossing, so no second notification
	err = qry.MarkAlertNotified(ctx, db.MarkAlertNotifiedParams{
		LastNotifiedAt:     sql.NullString{String: start.Add(-30 * time.Hour).Format(time.RFC3339), Valid: true},
		LastPriceSeenCents: sql.NullInt64{Int64: 295, Valid: true},
		ID:                 alert.ID,
	})
	require.NoError(t, err)

	addPriceAt(t, qry, butter.ID, coles.ID, 290, start.Add(2*time.Hour), false)
	result, err = service.CheckPrices(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Notified)
	require.Len(t, mailer.sent, 1)

	// the baseline still advanced
	got, err := service.Get(ctx, carol.ID, alert.ID)
	require.NoError(t, err)
	require.EqualValues(t, 290, *got.LastPriceSeenCents)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
