package disruption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortKey_RoundTrip(t *testing.T) {
	const id = "acde070d-8c4c-4f0d-9d8a-162843c10333"
	cases := map[string]SortKey{
		id + "#INFO":                      InfoKey(id, OverlayBaseline),
		id + "#INFO#EDIT":                 InfoKey(id, OverlayEdit),
		id + "#INFO#PENDING":              InfoKey(id, OverlayPending),
		id + "#CONSEQUENCE#0":             ConsequenceKey(id, 0, OverlayBaseline),
		id + "#CONSEQUENCE#12#EDIT":       ConsequenceKey(id, 12, OverlayEdit),
		id + "#SOCIALMEDIAPOST#4#PENDING": SocialMediaPostKey(id, 4, OverlayPending),
		id + "#HISTORY#1741608000":        HistoryKey(id, 1741608000),
	}
	for sk, want := range cases {
		t.Run(sk, func(t *testing.T) {
			assert.Equal(t, sk, want.String())
			got, err := ParseSortKey(sk)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseSortKey_Rejects(t *testing.T) {
	for _, sk := range []string{
		"",
		"INFO",
		"#INFO",
		"id#UNKNOWN",
		"id#CONSEQUENCE",
		"id#CONSEQUENCE#x",
		"id#CONSEQUENCE#-1",
		"id#INFO#DRAFT",
		"id#INFO#EDIT#PENDING",
		"id#HISTORY",
		"id#HISTORY#soon",
	} {
		_, err := ParseSortKey(sk)
		assert.Error(t, err, sk)
	}
}

func TestWithOverlay(t *testing.T) {
	k := ConsequenceKey("id", 3, OverlayEdit).WithOverlay(OverlayBaseline)
	assert.Equal(t, "id#CONSEQUENCE#3", k.String())
}
