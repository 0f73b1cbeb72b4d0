// Package sequence mints human-readable document numbers of the form
// <PREFIX>-<YYYYMMDD>-<NNNN>, where the 4-digit counter restarts at 0001
// each UTC day, per document kind.
package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/fieldops/internal/model"
)

// RecentWindow is how many most-recently-created documents of a kind callers
// should hand to Next. The counter only needs to be unique within the current
// day, so a bounded window suffices instead of a full table scan.
const RecentWindow = 10

const dateLayout = "20060102"

var prefixes = map[model.DocumentKind]string{
	model.KindQuote:     "Q",
	model.KindWorkOrder: "WO",
	model.KindInvoice:   "INV",
}

// Prefix returns the number prefix for a document kind (Q, WO, INV).
func Prefix(kind model.DocumentKind) string {
	return prefixes[kind]
}

// Next computes the next document number for the given kind and date.
//
// recent must hold the most-recently-created documents of that kind, newest
// first. The first number found that belongs to today continues the day's
// counter; otherwise the counter restarts at 0001.
//
// Next is a pure function of its inputs. Two concurrent callers reading the
// same window will mint the same number; the write path closes that race with
// a uniqueness constraint on the number column (see Allocator for the
// transactional alternative).
func Next(kind model.DocumentKind, today time.Time, recent []model.Document) string {
	dateStr := today.UTC().Format(dateLayout)
	prefix := Prefix(kind) + "-" + dateStr + "-"

	counter := 1
	for _, doc := range recent {
		if !strings.HasPrefix(doc.Number, prefix) {
			continue
		}
		n, ok := parseCounter(doc.Number[len(prefix):])
		if !ok {
			continue
		}
		counter = n + 1
		break
	}

	return fmt.Sprintf("%s%04d", prefix, counter)
}

// parseCounter parses an all-digit counter suffix. Signs, spaces, and other
// non-digit characters mark the number as malformed.
func parseCounter(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
