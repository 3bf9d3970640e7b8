package submit

import (
	"context"
	"database/sql"
	"testing"

	"trolley-backend/internal/db"
	"trolley-backend/lib/testutil"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setup(t testing.TB) (Service, *db.Queries, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/submit",
		DbSchema: db.Schema,
	})
	return NewService(res.DB), db.New(res.DB), cleanup
}

func seedBase(t testing.TB, qry *db.Queries) (db.Store, db.Product) {
	store, err := qry.CreateStore(context.Background(), db.CreateStoreParams{Name: "Woolworths", Slug: "woolworths"})
	require.NoError(t, err)
	product, err := qry.CreateProduct(context.Background(), db.CreateProductParams{Name: "Full Cream Milk"})
	require.NoError(t, err)
	return store, product
}

func addUser(t testing.TB, qry *db.Queries, name string) db.User {
	user, err := qry.CreateUser(context.Background(), db.CreateUserParams{
		Email:       sql.NullString{String: name + "@email.com", Valid: true},
		DisplayName: sql.NullString{String: name, Valid: true},
	})
	require.NoError(t, err)
	return user
}

func TestSubmitPrice(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	store, product := seedBase(t, qry)
	alice := addUser(t, qry, "alice")

	was := int64(600)
	price, err := service.SubmitPrice(ctx, PriceSubmission{
		ProductID:     product.ID,
		StoreID:       store.ID,
		PriceCents:    450,
		WasPriceCents: &was,
		IsSpecial:     true,
	}, &alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 450, price.PriceCents)
	require.Equal(t, "$4.50", price.Price)
	require.EqualValues(t, 600, *price.WasPriceCents)
	require.Equal(t, "user", price.Source)
	require.EqualValues(t, 0, price.VerifiedCount)

	// the submission created the store product link
	storeProduct, err := qry.GetStoreProduct(ctx, db.GetStoreProductParams{ProductID: product.ID, StoreID: store.ID})
	require.NoError(t, err)
	require.Equal(t, "Full Cream Milk", storeProduct.StoreProductName.String)

	submitter, err := qry.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, submitter.ReputationScore)
	require.EqualValues(t, 1, submitter.SubmissionsCount)

	// anonymous submissions carry no user and adjust nobody
	_, err = service.SubmitPrice(ctx, PriceSubmission{
		ProductID:  product.ID,
		StoreID:    store.ID,
		PriceCents: 500,
	}, nil)
	require.NoError(t, err)
	submitter, err = qry.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, submitter.SubmissionsCount)
}

func TestSubmitPriceValidation(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	store, product := seedBase(t, qry)

	_, err := service.SubmitPrice(ctx, PriceSubmission{ProductID: product.ID, StoreID: store.ID, PriceCents: 0}, nil)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = service.SubmitPrice(ctx, PriceSubmission{ProductID: 99999, StoreID: store.ID, PriceCents: 100}, nil)
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = service.SubmitPrice(ctx, PriceSubmission{ProductID: product.ID, StoreID: 99999, PriceCents: 100}, nil)
	require.ErrorIs(t, err, ErrStoreNotFound)
}

func TestVerifyPrice(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	store, product := seedBase(t, qry)
	alice := addUser(t, qry, "alice")
	bob := addUser(t, qry, "bob")
	carol := addUser(t, qry, "carol")

	submitted, err := service.SubmitPrice(ctx, PriceSubmission{
		ProductID:  product.ID,
		StoreID:    store.ID,
		PriceCents: 450,
	}, &alice.ID)
	require.NoError(t, err)

	result, err := service.VerifyPrice(ctx, submitted.ID, bob.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Verification recorded", result.Message)
	require.EqualValues(t, 1, result.NewVerifiedCount)

	// a correct vote pays the submitter two points on top of the
	// submission point
	submitter, err := qry.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, submitter.ReputationScore)

	_, err = service.VerifyPrice(ctx, submitted.ID, bob.ID, true)
	require.ErrorIs(t, err, ErrAlreadyVerified)

	_, err = service.VerifyPrice(ctx, submitted.ID, alice.ID, true)
	require.ErrorIs(t, err, ErrOwnSubmission)

	downvoted, err := service.VerifyPrice(ctx, submitted.ID, carol.ID, false)
	require.NoError(t, err)
	require.EqualValues(t, 0, downvoted.NewVerifiedCount)

	submitter, err = qry.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, submitter.ReputationScore)

	_, err = service.VerifyPrice(ctx, 99999, bob.ID, true)
	require.ErrorIs(t, err, ErrPriceNotFound)
}

func TestPending(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	store, product := seedBase(t, qry)
	alice := addUser(t, qry, "alice")

	first, err := service.SubmitPrice(ctx, PriceSubmission{ProductID: product.ID, StoreID: store.ID, PriceCents: 450}, &alice.ID)
	require.NoError(t, err)
	second, err := service.SubmitPrice(ctx, PriceSubmission{ProductID: product.ID, StoreID: store.ID, PriceCents: 460}, nil)
	require.NoError(t, err)

	// a fully verified price drops off the queue
	verified, err := service.SubmitPrice(ctx, PriceSubmission{ProductID: product.ID, StoreID: store.ID, PriceCents: 470}, nil)
	require.NoError(t, err)
	err = qry.UpdatePriceVerifiedCount(ctx, db.UpdatePriceVerifiedCountParams{Delta: 3, ID: verified.ID})
	require.NoError(t, err)

	pending, err := service.Pending(ctx, 20)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, pending, 2)

	ids := []int64{pending[0].PriceID, pending[1].PriceID}
	require.Contains(t, ids, first.ID)
	require.Contains(t, ids, second.ID)
	for _, item := range pending {
		if item.PriceID == first.ID {
			require.Equal(t, "alice", *item.SubmittedBy)
		} else {
			require.Nil(t, item.SubmittedBy)
		}
		require.Equal(t, "Full Cream Milk", item.ProductName)
		require.Equal(t, "Woolworths", item.StoreName)
	}
}
