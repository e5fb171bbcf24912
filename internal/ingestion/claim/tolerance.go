package claim

import (
	"strings"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

// baseTolerance is the per-unit policy table: the absolute slack two
// numeric values may differ by and still agree, before authority and hedge
// adjustments. Units absent from the table compare at a conservative
// relative slack handled in Tolerance.
var baseTolerance = map[string]float64{
	"%":       0.05,
	"percent": 0.05,
	"ms":      1,
	"s":       0.5,
	"sec":     0.5,
	"min":     0.5,
	"minutes": 0.5,
	"h":       0.1,
	"gb":      0.1,
	"mb":      0.5,
}

// Tolerance computes the comparison slack for a pair as a function of
// (unit, truth regime, authority, hedge strength). HIGH authority tightens,
// LOW widens; a hedged statement earns proportionally more slack; an
// approximate truth regime doubles it. The result is monotone in each
// widening input, which is what keeps comparison results stable under
// policy tightening.
func Tolerance(unit, truthRegime string, authority types.ClaimAuthority, hedgeStrength float64) float64 {
	unit = strings.ToLower(strings.TrimSpace(unit))
	tol, ok := baseTolerance[unit]
	if !ok {
		tol = 0.01
	}

	switch authority {
	case types.AuthorityHigh:
		tol *= 0.5
	case types.AuthorityLow:
		tol *= 2
	}

	switch strings.ToLower(strings.TrimSpace(truthRegime)) {
	case "approximate", "estimate", "about":
		tol *= 2
	}

	if hedgeStrength > 0 {
		if hedgeStrength > 1 {
			hedgeStrength = 1
		}
		tol *= 1 + hedgeStrength
	}
	return tol
}
