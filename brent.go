/*
Copyright © 2026 the IonMC authors.
This file is part of IonMC.

IonMC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IonMC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IonMC.  If not, see <http://www.gnu.org/licenses/>.
*/

package ionmc

import (
	"fmt"
	"math"
)

// BracketError indicates that a root solve was requested on an interval
// whose endpoints do not straddle zero. The solver never widens the
// bracket itself; that is the caller's job.
type BracketError struct {
	A, B   float64
	FA, FB float64
}

func (e *BracketError) Error() string {
	return fmt.Sprintf("ionmc: root is not bracketed by [%g, %g]: f(a)=%g, f(b)=%g",
		e.A, e.B, e.FA, e.FB)
}

const maxRootIterations = 100

// FindRoot returns a root of the continuous function f on the interval
// [a, b], which must bracket the root: f(a)·f(b) ≤ 0. The result x
// satisfies |f(x)| ≤ tol or lies within an interval of width ≤ tol.
// The method is Brent's: inverse quadratic interpolation or the secant
// rule where they converge quickly, bisection where they do not.
func FindRoot(f func(float64) float64, a, b, tol float64) (float64, error) {
	fa, fb := f(a), f(b)
	if fa*fb > 0 {
		return 0, &BracketError{A: a, B: b, FA: fa, FB: fb}
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}

	c, fc := a, fa
	var d, e float64 // last and next-to-last step sizes
	d = b - a
	e = d

	for i := 0; i < maxRootIterations; i++ {
		if math.Abs(fc) < math.Abs(fb) {
			// b must remain the best estimate.
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*macheps*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Attempt a superlinear step.
			var p, q, r float64
			s := fb / fa
			if a == c {
				// Secant rule.
				p = 2 * xm * s
				q = 1 - s
			} else {
				// Inverse quadratic interpolation.
				q = fa / fc
				r = fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				// The interpolated step stays in the bracket and
				// shrinks it; accept.
				e = d
				d = p / q
			} else {
				// Interpolation failed; bisect.
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
	}
	return b, fmt.Errorf("ionmc: root solve exceeded %d iterations on [%g, %g]",
		maxRootIterations, a, c)
}

const macheps = 2.220446049250313e-16
