// Package submit takes crowdsourced price reports: users (or anonymous
// visitors) submit in-store prices, other users verify them, and
// submitter reputation tracks both.
package submit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
)

var tracer = otel.Tracer("services/submit")

var (
	ErrProductNotFound = errors.New("product not found")
	ErrStoreNotFound   = errors.New("store not found")
	ErrPriceNotFound   = errors.New("price not found")
	ErrAlreadyVerified = errors.New("price already verified")
	ErrOwnSubmission   = errors.New("cannot verify your own submission")
	ErrInvalidPrice    = errors.New("price_cents must be positive")
)

type Service struct {
	qry    *db.Queries
	makeTx db.MakeTx
}

func NewService(database *sql.DB) Service {
	return Service{qry: db.New(database), makeTx: db.NewMakeTx(database)}
}

type PriceSubmission struct {
	ProductID     int64   `json:"product_id"`
	StoreID       int64   `json:"store_id"`
	PriceCents    int64   `json:"price_cents"`
	WasPriceCents *int64  `json:"was_price_cents,omitempty"`
	IsSpecial     bool    `json:"is_special"`
	SpecialType   *string `json:"special_type,omitempty"`
}

type SubmittedPrice struct {
	ID             int64   `json:"id"`
	StoreProductID int64   `json:"store_product_id"`
	PriceCents     int64   `json:"price_cents"`
	Price          string  `json:"price"`
	WasPriceCents  *int64  `json:"was_price_cents,omitempty"`
	IsSpecial      bool    `json:"is_special"`
	SpecialType    *string `json:"special_type,omitempty"`
	Source         string  `json:"source"`
	VerifiedCount  int64   `json:"verified_count"`
	RecordedAt     string  `json:"recorded_at"`
}

// SubmitPrice records a user-reported price. The store product link is
// created on first report; signed-in submitters earn a reputation
// point.
func (service Service) SubmitPrice(ctx context.Context, submission PriceSubmission, userID *int64) (SubmittedPrice, error) {
	ctx, span := tracer.Start(ctx, "SubmitPrice")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product_id", submission.ProductID),
		attribute.Int64("store_id", submission.StoreID),
	)

	fail := func(err error) (SubmittedPrice, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SubmittedPrice{}, err
	}

	if submission.PriceCents <= 0 {
		return SubmittedPrice{}, ErrInvalidPrice
	}

	product, err := service.qry.GetProduct(ctx, submission.ProductID)
	if err == sql.ErrNoRows {
		return SubmittedPrice{}, ErrProductNotFound
	} else if err != nil {
		return fail(err)
	}
	if _, err := service.qry.GetStore(ctx, submission.StoreID); err == sql.ErrNoRows {
		return SubmittedPrice{}, ErrStoreNotFound
	} else if err != nil {
		return fail(err)
	}

	tx, discard, commit, err := service.makeTx()
	if err != nil {
		return fail(err)
	}
	defer discard()

	storeProduct, err := tx.GetStoreProduct(ctx, db.GetStoreProductParams{
		ProductID: submission.ProductID,
		StoreID:   submission.StoreID,
	})
	if err == sql.ErrNoRows {
		storeProduct, err = tx.CreateStoreProduct(ctx, db.CreateStoreProductParams{
			ProductID:        submission.ProductID,
			StoreID:          submission.StoreID,
			StoreProductName: sql.NullString{String: product.Name, Valid: true},
		})
	}
	if err != nil {
		return fail(err)
	}

	params := db.InsertPriceParams{
		StoreProductID: storeProduct.ID,
		PriceCents:     submission.PriceCents,
		IsSpecial:      submission.IsSpecial,
		Source:         "user",
		RecordedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if submission.WasPriceCents != nil {
		params.WasPriceCents = sql.NullInt64{Int64: *submission.WasPriceCents, Valid: true}
	}
	if submission.SpecialType != nil {
		params.SpecialType = sql.NullString{String: *submission.SpecialType, Valid: true}
	}
	if userID != nil {
		params.SourceUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}
	price, err := tx.InsertPrice(ctx, params)
	if err != nil {
		return fail(err)
	}

	if userID != nil {
		err := tx.AdjustUserReputation(ctx, db.AdjustUserReputationParams{
			ReputationDelta:  1,
			SubmissionsDelta: 1,
			ID:               *userID,
		})
		if err != nil {
			return fail(err)
		}
	}
	if err := commit(); err != nil {
		return fail(err)
	}

	result := SubmittedPrice{
		ID:             price.ID,
		StoreProductID: price.StoreProductID,
		PriceCents:     price.PriceCents,
		Price:          money.FormatCents(price.PriceCents),
		IsSpecial:      price.IsSpecial,
		Source:         price.Source,
		VerifiedCount:  price.VerifiedCount,
		RecordedAt:     price.RecordedAt,
	}
	if price.WasPriceCents.Valid {
		result.WasPriceCents = &price.WasPriceCents.Int64
	}
	if price.SpecialType.Valid {
		result.SpecialType = &price.SpecialType.String
	}
	return result, nil
}

type VerificationResult struct {
	Message          string `json:"message"`
	NewVerifiedCount int64  `json:"new_verified_count"`
}

// VerifyPrice records one user's up/down vote on a submitted price.
// Each user votes once per price and never on their own submission.
// Correct votes raise the count and pay the submitter two reputation
// points; incorrect ones lower the count and cost one.
func (service Service) VerifyPrice(ctx context.Context, priceID, userID int64, isCorrect bool) (VerificationResult, error) {
	ctx, span := tracer.Start(ctx, "VerifyPrice")
	defer span.End()
	span.SetAttributes(attribute.Int64("price_id", priceID), attribute.Bool("is_correct", isCorrect))

	fail := func(err error) (VerificationResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return VerificationResult{}, err
	}

	price, err := service.qry.GetPrice(ctx, priceID)
	if err == sql.ErrNoRows {
		return VerificationResult{}, ErrPriceNotFound
	} else if err != nil {
		return fail(err)
	}
	if price.SourceUserID.Valid && price.SourceUserID.Int64 == userID {
		return VerificationResult{}, ErrOwnSubmission
	}

	_, err = service.qry.GetPriceVerification(ctx, db.GetPriceVerificationParams{
		PriceID: priceID,
		UserID:  userID,
	})
	if err == nil {
		return VerificationResult{}, ErrAlreadyVerified
	} else if err != sql.ErrNoRows {
		return fail(err)
	}

	delta := int64(1)
	reputation := int64(2)
	if !isCorrect {
		delta = -1
		reputation = -1
	}

	tx, discard, commit, err := service.makeTx()
	if err != nil {
		return fail(err)
	}
	defer discard()

	if _, err := tx.CreatePriceVerification(ctx, db.CreatePriceVerificationParams{
		PriceID:   priceID,
		UserID:    userID,
		IsCorrect: isCorrect,
	}); err != nil {
		return fail(err)
	}
	if err := tx.UpdatePriceVerifiedCount(ctx, db.UpdatePriceVerifiedCountParams{
		Delta: delta,
		ID:    priceID,
	}); err != nil {
		return fail(err)
	}
	if price.SourceUserID.Valid {
		err := tx.AdjustUserReputation(ctx, db.AdjustUserReputationParams{
			ReputationDelta: reputation,
			ID:              price.SourceUserID.Int64,
		})
		if err != nil {
			return fail(err)
		}
	}
	if err := commit(); err != nil {
		return fail(err)
	}

	return VerificationResult{
		Message:          "Verification recorded",
		NewVerifiedCount: price.VerifiedCount + delta,
	}, nil
}

type PendingPrice struct {
	PriceID       int64   `json:"price_id"`
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	StoreName     string  `json:"store_name"`
	StoreSlug     string  `json:"store_slug"`
	PriceCents    int64   `json:"price_cents"`
	Price         string  `json:"price"`
	IsSpecial     bool    `json:"is_special"`
	VerifiedCount int64   `json:"verified_count"`
	SubmittedAt   string  `json:"submitted_at"`
	SubmittedBy   *string `json:"submitted_by,omitempty"`
}

// Pending lists recent user submissions that still need votes.
func (service Service) Pending(ctx context.Context, limit int64) ([]PendingPrice, error) {
	ctx, span := tracer.Start(ctx, "Pending")
	defer span.End()

	rows, err := service.qry.ListPendingUserPrices(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pending := make([]PendingPrice, 0, len(rows))
	for _, row := range rows {
		item := PendingPrice{
			PriceID:       row.ID,
			ProductID:     row.ProductID,
			ProductName:   row.ProductName,
			StoreName:     row.StoreName,
			StoreSlug:     row.StoreSlug,
			PriceCents:    row.PriceCents,
			Price:         money.FormatCents(row.PriceCents),
			IsSpecial:     row.IsSpecial,
			VerifiedCount: row.VerifiedCount,
			SubmittedAt:   row.RecordedAt,
		}
		if row.SubmittedBy.Valid {
			item.SubmittedBy = &row.SubmittedBy.String
		}
		pending = append(pending, item)
	}
	span.SetAttributes(attribute.Int("pending", len(pending)))
	return pending, nil
}
