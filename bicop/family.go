// SPDX-License-Identifier: MIT

package bicop

import (
	"errors"
	"fmt"
	"strings"
)

// Family is the closed enumeration of bivariate copula families.
// The numeric order is the tie-breaking order of Select.
type Family int

const (
	// Indep is the independence copula C(u1,u2) = u1·u2.
	Indep Family = iota
	// Gaussian is the normal copula with correlation rho.
	Gaussian
	// Student is the t copula with correlation rho and degrees of freedom nu.
	Student
	// Clayton is the Archimedean copula with lower tail dependence.
	Clayton
	// Gumbel is the extreme-value copula with upper tail dependence.
	Gumbel
	// Frank is the radially symmetric Archimedean copula without tail dependence.
	Frank
	// Joe is the Archimedean copula with strong upper tail dependence.
	Joe
	// BB1 is the two-parameter Clayton-Gumbel family.
	BB1
	// BB6 is the two-parameter Joe-Gumbel family.
	BB6
	// BB7 is the two-parameter Joe-Clayton family.
	BB7
	// BB8 is the two-parameter Joe-Frank family.
	BB8
	// TLL is the nonparametric transformation local-likelihood estimator.
	TLL
)

var (
	// ErrFamily is returned for an unknown or unsupported family name. It is a
	// configuration error: vinecop checks family sets before any fitting starts.
	ErrFamily = errors.New("bicop: unknown or unsupported family")

	// ErrRotation is returned for a rotation other than 0, 90, 180 or 270, or a
	// non-zero rotation of a radially symmetric family.
	ErrRotation = errors.New("bicop: invalid rotation")

	// ErrParameters is returned when the parameter vector has the wrong arity or
	// lies outside the family bounds.
	ErrParameters = errors.New("bicop: invalid parameters")

	// ErrMethod is returned for an unknown estimation method.
	ErrMethod = errors.New("bicop: unknown estimation method")

	// ErrCriterion is returned for an unknown selection criterion.
	ErrCriterion = errors.New("bicop: unknown selection criterion")

	// ErrData is returned when u1/u2/weights have inconsistent lengths or leave (0,1).
	ErrData = errors.New("bicop: invalid pseudo-observations")
)

var familyNames = [...]string{
	Indep:    "indep",
	Gaussian: "gaussian",
	Student:  "student",
	Clayton:  "clayton",
	Gumbel:   "gumbel",
	Frank:    "frank",
	Joe:      "joe",
	BB1:      "bb1",
	BB6:      "bb6",
	BB7:      "bb7",
	BB8:      "bb8",
	TLL:      "tll",
}

// String returns the canonical lower-case name of f.
func (f Family) String() string {
	if f < Indep || int(f) >= len(familyNames) {
		return fmt.Sprintf("Family(%d)", int(f))
	}

	return familyNames[f]
}

// Supported reports whether the built-in library implements f.
// BB1/BB6/BB7/BB8 and TLL are part of the enumeration (and of model files written
// by other tools) but have no kernel here.
func (f Family) Supported() bool {
	return f >= Indep && f <= Joe
}

// Rotatable reports whether f is asymmetric and therefore fitted at 0/90/180/270.
// Elliptical families and Frank cover negative dependence through their parameter.
func (f Family) Rotatable() bool {
	switch f {
	case Clayton, Gumbel, Joe, BB1, BB6, BB7, BB8:
		return true
	default:
		return false
	}
}

// OneParameter reports whether f has exactly one parameter (eligible for itau).
func (f Family) OneParameter() bool {
	switch f {
	case Gaussian, Clayton, Gumbel, Frank, Joe:
		return true
	default:
		return false
	}
}

// ParseFamily maps a family name to its tag. Besides the canonical names it
// accepts the group names handled by ParseFamilySet only when expanded there.
func ParseFamily(name string) (Family, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "independence":
		return Indep, nil
	case "normal", "gauss":
		return Gaussian, nil
	case "t":
		return Student, nil
	}
	for f, s := range familyNames {
		if s == n {
			return Family(f), nil
		}
	}

	return Indep, fmt.Errorf("ParseFamily(%q): %w", name, ErrFamily)
}

// Family groups usable in family sets.
var (
	// All lists every family of the enumeration.
	All = []Family{Indep, Gaussian, Student, Clayton, Gumbel, Frank, Joe, BB1, BB6, BB7, BB8, TLL}
	// Parametric lists all parametric families.
	Parametric = []Family{Indep, Gaussian, Student, Clayton, Gumbel, Frank, Joe, BB1, BB6, BB7, BB8}
	// OnePar lists the one-parameter families.
	OnePar = []Family{Gaussian, Clayton, Gumbel, Frank, Joe}
	// Builtin lists the families implemented by this package.
	Builtin = []Family{Indep, Gaussian, Student, Clayton, Gumbel, Frank, Joe}
	// Elliptical lists the elliptical families.
	Elliptical = []Family{Gaussian, Student}
	// Archimedean lists the one-parameter Archimedean families.
	Archimedean = []Family{Clayton, Gumbel, Frank, Joe}
)

// ParseFamilySet expands names and group names ("all", "parametric", "onepar",
// "itau", "elliptical", "archimedean") into a de-duplicated set in enumeration order.
// Unsupported families fail with ErrFamily, so a bad set stops before fitting.
// An empty input means Builtin.
func ParseFamilySet(names []string) ([]Family, error) {
	if len(names) == 0 {
		return append([]Family(nil), Builtin...), nil
	}
	seen := make(map[Family]bool)
	for _, raw := range names {
		var group []Family
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "all", "parametric":
			group = Builtin
		case "onepar", "itau":
			group = OnePar
		case "elliptical":
			group = Elliptical
		case "archimedean":
			group = Archimedean
		default:
			f, err := ParseFamily(raw)
			if err != nil {
				return nil, err
			}
			if !f.Supported() {
				return nil, fmt.Errorf("ParseFamilySet: family %q has no built-in kernel: %w", raw, ErrFamily)
			}
			group = []Family{f}
		}
		for _, f := range group {
			seen[f] = true
		}
	}

	return sortedFamilies(seen), nil
}

// ValidateFamilySet checks that every family in set is supported.
func ValidateFamilySet(set []Family) error {
	for _, f := range set {
		if !f.Supported() {
			return fmt.Errorf("ValidateFamilySet: %s: %w", f, ErrFamily)
		}
	}

	return nil
}

// sortedFamilies returns the keys of seen in enumeration order.
func sortedFamilies(seen map[Family]bool) []Family {
	out := make([]Family, 0, len(seen))
	for _, f := range All {
		if seen[f] {
			out = append(out, f)
		}
	}

	return out
}
