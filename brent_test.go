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
	"math"
	"testing"
)

func TestFindRoot(t *testing.T) {
	tests := []struct {
		name string
		f    func(float64) float64
		a, b float64
		want float64
	}{
		{
			name: "linear",
			f:    func(x float64) float64 { return 2*x - 3 },
			a:    0, b: 10,
			want: 1.5,
		},
		{
			name: "cubic",
			f:    func(x float64) float64 { return x*x*x - 2*x - 5 },
			a:    1, b: 3,
			want: 2.0945514815423265,
		},
		{
			name: "transcendental",
			f:    func(x float64) float64 { return math.Cos(x) - x },
			a:    0, b: 1,
			want: 0.7390851332151607,
		},
		{
			name: "steep",
			f:    func(x float64) float64 { return math.Exp(x) - 1e4 },
			a:    0, b: 20,
			want: math.Log(1e4),
		},
	}
	const tol = 1e-10
	for _, test := range tests {
		x, err := FindRoot(test.f, test.a, test.b, tol)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if math.Abs(x-test.want) > 1e-8 {
			t.Errorf("%s: got %v, want %v", test.name, x, test.want)
		}
	}
}

func TestFindRootEndpoint(t *testing.T) {
	f := func(x float64) float64 { return x }
	x, err := FindRoot(f, 0, 5, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	if x != 0 {
		t.Errorf("got %v, want exact endpoint root 0", x)
	}
}

func TestFindRootStaysInBracket(t *testing.T) {
	a, b := 1.0, 3.0
	f := func(x float64) float64 {
		if x < a || x > b {
			t.Errorf("evaluated f outside bracket at %v", x)
		}
		return x*x - 4
	}
	x, err := FindRoot(f, a, b, 1e-12)
	if err != nil {
		t.Fatal(err)
	}
	if x < a || x > b {
		t.Errorf("root %v outside [%v, %v]", x, a, b)
	}
	if math.Abs(x-2) > 1e-9 {
		t.Errorf("got %v, want 2", x)
	}
}

func TestFindRootBracketError(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1 }
	_, err := FindRoot(f, -1, 1, 1e-6)
	if err == nil {
		t.Fatal("expected a bracket error")
	}
	be, ok := err.(*BracketError)
	if !ok {
		t.Fatalf("expected *BracketError, got %T: %v", err, err)
	}
	if be.FA != 2 || be.FB != 2 {
		t.Errorf("unexpected endpoint values: f(a)=%v f(b)=%v", be.FA, be.FB)
	}
}
