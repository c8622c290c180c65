package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var nupPattern = regexp.MustCompile(`^NUP-\d{8}-\d{4}$`)

func TestGenerateUsesLocalCalendarDate(t *testing.T) {
	wib := time.FixedZone("WIB", 7*60*60)
	g := &IdentifierGenerator{
		// 03:30 on the 19th in WIB, still the 18th in UTC
		Now:  func() time.Time { return time.Date(2026, 10, 18, 20, 30, 0, 0, time.UTC) },
		IntN: func(int) int { return 233 },
		Loc:  wib,
	}

	ids := g.Generate()

	assert.Equal(t, "NUP-20261019-1233", ids.NomorNUP)
	assert.Equal(t, "2026-10-19", ids.TanggalDaftarNUP)
	assert.Equal(t, ids.TanggalDaftarNUP, ids.TanggalReleaseNUP)
}

func TestGenerateSuffixBounds(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC) }

	low := (&IdentifierGenerator{Now: now, IntN: func(int) int { return 0 }, Loc: time.UTC}).Generate()
	high := (&IdentifierGenerator{Now: now, IntN: func(n int) int { return n - 1 }, Loc: time.UTC}).Generate()

	assert.Equal(t, "NUP-20260102-1000", low.NomorNUP)
	assert.Equal(t, "NUP-20260102-9999", high.NomorNUP)
}

func TestGenerateAlwaysMatchesFormat(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	g := NewIdentifierGenerator(time.UTC)
	g.Now = func() time.Time { return fixed }

	for i := 0; i < 500; i++ {
		ids := g.Generate()
		assert.Regexp(t, nupPattern, ids.NomorNUP)
		assert.Equal(t, "20261019", ids.NomorNUP[4:12])
	}
}
