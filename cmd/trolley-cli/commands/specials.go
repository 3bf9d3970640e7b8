package commands

import (
	"database/sql"
	"fmt"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
	"trolley-backend/lib/serviceutil"
	"trolley-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	specialsStore *string
	specialsLimit *int
)

func init() {
	specialsStore = specialsCmd.Flags().String("store", "", "Limit to one store slug.")
	specialsLimit = specialsCmd.Flags().Int("limit", 25, "Maximum rows to print (0 = all).")
	rootCmd.AddCommand(specialsCmd)
}

func specialRow(store, name string, priceCents int64, was sql.NullInt64, discount int64, ends string) table.Row {
	wasStr := ""
	if was.Valid {
		wasStr = money.FormatCents(was.Int64)
	}
	discountStr := ""
	if discount > 0 {
		discountStr = fmt.Sprintf("%d%%", discount)
	}
	return table.Row{store, name, money.FormatCents(priceCents), wasStr, discountStr, ends}
}

var specialsCmd = &cobra.Command{
	Use:   "specials [--store slug] [--limit N]",
	Short: "Prints the specials valid today.",
	Run: func(cmd *cobra.Command, args []string) {
		database, qry := openDatabase()
		defer database.Close()
		today := timezone.Today()

		var rows []table.Row
		if *specialsStore != "" {
			specials, err := qry.ListActiveSpecialsForStore(cmd.Context(), db.ListActiveSpecialsForStoreParams{
				ValidTo: today,
				Slug:    *specialsStore,
			})
			if err != nil {
				serviceutil.Fatal("list specials", err)
			}
			for _, sp := range specials {
				rows = append(rows, specialRow(sp.StoreName, sp.Name, sp.PriceCents, sp.WasPriceCents, sp.DiscountPercent, sp.ValidTo))
			}
		} else {
			specials, err := qry.ListActiveSpecials(cmd.Context(), today)
			if err != nil {
				serviceutil.Fatal("list specials", err)
			}
			for _, sp := range specials {
				rows = append(rows, specialRow(sp.StoreName, sp.Name, sp.PriceCents, sp.WasPriceCents, sp.DiscountPercent, sp.ValidTo))
			}
		}

		if *specialsLimit > 0 && len(rows) > *specialsLimit {
			rows = rows[:*specialsLimit]
		}

		t := newTable()
		t.AppendHeader(table.Row{"Store", "Name", "Price", "Was", "Off", "Ends"})
		t.AppendRows(rows)
		t.Render()
	},
}
