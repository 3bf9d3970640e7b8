package ingest

import (
	"trolley-backend/lib/restyutil"
)

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput dumps raw scraper and importer traffic
// through the given output. Call before NewService.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}
