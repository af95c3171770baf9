package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/plazareviews/revscope/pkg/review"
)

const dateLayout = "2006-01-02"

// identityKey identifies a review within its platform. Reviews without an
// external id are keyed by a hash of their content.
func identityKey(r review.Review) string {
	platform := r.Platform
	if platform == "" {
		platform = review.PlatformUnknown
	}
	if id := strings.TrimSpace(r.ID); id != "" {
		return platform + "|" + id
	}

	h := sha1.New()
	for _, part := range []string{r.Author, dateString(r.Date), strconv.Itoa(r.Rating), r.Title, r.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return platform + "|#" + hex.EncodeToString(h.Sum(nil))[:20]
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func nullDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

func parseNullDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
