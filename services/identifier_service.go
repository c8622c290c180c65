package services

import (
	"fmt"
	"math/rand"
	"time"

	"nup_registration/models"
)

const NUPPrefix = "NUP"

// IdentifierGenerator produces the NUP number and the registration dates of a session.
type IdentifierGenerator struct {
	Now  func() time.Time
	IntN func(n int) int
	Loc  *time.Location
}

func NewIdentifierGenerator(loc *time.Location) *IdentifierGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &IdentifierGenerator{
		Now:  time.Now,
		IntN: rand.Intn,
		Loc:  loc,
	}
}

// Generate reads the clock once, so the NUP stamp and both dates always agree.
// Uniqueness of the NUP number is probabilistic.
func (g *IdentifierGenerator) Generate() models.Identifiers {
	today := g.Now().In(g.Loc)
	suffix := g.IntN(9000) + 1000

	date := today.Format("2006-01-02")
	return models.Identifiers{
		NomorNUP:          fmt.Sprintf("%s-%s-%04d", NUPPrefix, today.Format("20060102"), suffix),
		TanggalDaftarNUP:  date,
		TanggalReleaseNUP: date,
	}
}
