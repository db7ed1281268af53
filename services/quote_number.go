package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cast"

	"pcbquote/collections"
)

const quoteNumberPrefix = "PCB"

// quoteDay returns the YYMMDD part of a quote number.
func quoteDay(t time.Time) string {
	return t.Format("060102")
}

// formatQuoteNumber constructs the quote number string from components.
func formatQuoteNumber(day string, sequence int) string {
	return fmt.Sprintf("%s-%s-%03d", quoteNumberPrefix, day, sequence)
}

// GenerateQuoteNumber creates the next quote number for the day of now.
// Format: PCB-{YYMMDD}-{sequence}
// - sequence: at least 3 digits, one past the highest number issued that day
//
// Suffixes are compared numerically so -1000 follows -999.
func GenerateQuoteNumber(app *pocketbase.PocketBase, now time.Time) (string, error) {
	day := quoteDay(now)
	prefix := fmt.Sprintf("%s-%s-", quoteNumberPrefix, day)

	issued, err := app.FindRecordsByFilter(
		collections.Quotes,
		"quote_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": prefix + "%"},
	)
	if err != nil {
		// If collection doesn't exist or no records, start at 1
		issued = nil
	}

	highest := 0
	for _, r := range issued {
		suffix := strings.TrimPrefix(r.GetString("quote_number"), prefix)
		if n := cast.ToInt(strings.TrimLeft(suffix, "0")); n > highest {
			highest = n
		}
	}

	return formatQuoteNumber(day, highest+1), nil
}

// quoteNumberTaken reports whether a stored quote already carries number.
func quoteNumberTaken(app *pocketbase.PocketBase, number string) bool {
	_, err := app.FindFirstRecordByData(collections.Quotes, "quote_number", number)
	return err == nil
}
