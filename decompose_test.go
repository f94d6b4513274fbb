package merkle

import (
	"reflect"
	"testing"
)

func TestDecompose(t *testing.T) {
	cases := map[int][]int{
		0:  nil,
		1:  {0},
		2:  {1},
		3:  {1, 0},
		5:  {2, 0},
		11: {3, 1, 0},
		16: {4},
	}
	for n, want := range cases {
		got := Decompose(n)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Decompose(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestDecomposeSumsBackToN(t *testing.T) {
	for n := 1; n < 300; n++ {
		sum := 0
		for _, k := range Decompose(n) {
			sum += 1 << uint(k)
		}
		if sum != n {
			t.Errorf("Decompose(%d) exponents sum to %d", n, sum)
		}
	}
}

func TestDecomposeStrictlyDecreasing(t *testing.T) {
	for n := 1; n < 300; n++ {
		exps := Decompose(n)
		for i := 1; i < len(exps); i++ {
			if exps[i-1] <= exps[i] {
				t.Errorf("Decompose(%d) not strictly decreasing: %v", n, exps)
			}
		}
	}
}

func TestLowestBitPositionPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for n <= 0")
		}
	}()
	LowestBitPosition(0)
}

func TestLargestPowerOfTwoBelow(t *testing.T) {
	cases := map[int]int{
		2: 1, 3: 2, 4: 2, 5: 4, 7: 4, 8: 4, 9: 8, 16: 8, 17: 16,
	}
	for n, want := range cases {
		if got := largestPowerOfTwoBelow(n); got != want {
			t.Errorf("largestPowerOfTwoBelow(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestLargestPowerOfTwoBelowPanicsBelowTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for n < 2")
		}
	}()
	largestPowerOfTwoBelow(1)
}
