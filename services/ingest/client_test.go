package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJsonObjectNavigation(t *testing.T) {
	data := mustJSON(t, `{
		"name": "Milk",
		"stockcode": 888222,
		"price": "4.50",
		"zero": 0,
		"pricing": {"now": 3.5},
		"items": [{"id": "a"}, "stray", {"id": "b"}]
	}`)

	require.Equal(t, "Milk", data.text("missing", "name"))
	// numeric ids come back formatted, not in scientific notation
	require.Equal(t, "888222", data.text("stockcode"))
	require.Equal(t, "", data.text("absent"))

	require.Equal(t, 4.5, data.number("price"))
	require.Equal(t, 3.5, data.object("pricing").number("now"))
	require.Equal(t, 0.0, data.number("zero", "absent"))
	require.Equal(t, 0.0, data.object("absent").number("anything"))

	items := data.array("items")
	require.Len(t, items, 2)
	require.Equal(t, "b", items[1].text("id"))
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepCtx(ctx, time.Minute), context.Canceled)
}
