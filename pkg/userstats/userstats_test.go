package userstats

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/plazareviews/revscope/pkg/review"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestCompute(t *testing.T) {
	reviews := []review.Review{
		{Author: "ann", Date: day("2016-01-01"), Rating: 5, Text: "abcd", Photos: 2},
		{Author: "ann", Date: day("2016-01-11"), Rating: 0, Text: "ab"},
		{Author: "ann", Date: day("2016-01-01"), Rating: 4, Text: ""},
		{Author: "bob", Date: day("2017-05-05"), Rating: 3, Text: "caf\u00e9"},
		{Author: "", Date: day("2017-05-05"), Rating: 3},
		{Author: "cy", Rating: 3},
	}

	users := Compute(reviews)
	require.Len(t, users, 2)

	ann := users[0]
	assert.Equal(t, "ann", ann.Author)
	assert.Equal(t, 3, ann.Reviews)
	assert.Equal(t, 2, ann.Ratings)
	assert.Equal(t, 2, ann.FirstReviews)
	assert.Equal(t, 2, ann.Photos)
	assert.Equal(t, day("2016-01-01"), ann.FirstDate)
	assert.Equal(t, day("2016-01-11"), ann.LastDate)
	assert.Equal(t, 10, ann.DaysActive)
	assert.InDelta(t, 0.3, ann.ReviewsPerDay, 1e-9)
	assert.InDelta(t, 2.0, ann.MeanTextLength, 1e-9)

	bob := users[1]
	assert.Equal(t, 0, bob.DaysActive)
	assert.True(t, math.IsNaN(bob.ReviewsPerDay))
	assert.InDelta(t, 4.0, bob.MeanTextLength, 1e-9, "length counts runes")
}

func TestComputeEmpty(t *testing.T) {
	assert.Empty(t, Compute(nil))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.xlsx")
	users := Compute([]review.Review{
		{Author: "ann", Date: day("2016-01-01"), Rating: 5},
		{Author: "ann", Date: day("2016-01-03"), Rating: 4},
		{Author: "bob", Date: day("2017-05-05"), Rating: 3},
	})
	require.NoError(t, WriteXLSX(path, users))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("user_stats")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "user_name", rows[0][0])
	assert.Equal(t, "ann", rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Equal(t, "bob", rows[2][0])
}
