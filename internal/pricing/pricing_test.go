package pricing

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestInputPriceScenario(t *testing.T) {
	e := Default()

	got, err := e.InputPrice(u(100), u(1000), u(2000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// floor(100*997*2000 / (1000*1000 + 100*997)) = floor(199400000/1099700)
	want := uint64(100*997*2000) / uint64(1000*1000+100*997)
	if got.Uint64() != want {
		t.Fatalf("output mismatch: got %s want %d", got.Dec(), want)
	}
	if want != 181 {
		t.Fatalf("unexpected reference value %d", want)
	}
}

func TestOutputPriceRoundsUp(t *testing.T) {
	e := Default()

	got, err := e.OutputPrice(u(181), u(1000), u(2000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000*181*1000 / (1819*997) = 99.80..., floored to 99, plus one
	if got.Uint64() != 100 {
		t.Fatalf("input mismatch: got %s want 100", got.Dec())
	}
}

func TestInvalidReserves(t *testing.T) {
	e := Default()

	cases := []struct {
		name string
		fn   func() (*uint256.Int, error)
	}{
		{"input empty in", func() (*uint256.Int, error) { return e.InputPrice(u(1), u(0), u(10)) }},
		{"input empty out", func() (*uint256.Int, error) { return e.InputPrice(u(1), u(10), u(0)) }},
		{"output empty in", func() (*uint256.Int, error) { return e.OutputPrice(u(1), u(0), u(10)) }},
		{"output drains pool", func() (*uint256.Int, error) { return e.OutputPrice(u(10), u(10), u(10)) }},
		{"output beyond pool", func() (*uint256.Int, error) { return e.OutputPrice(u(11), u(10), u(10)) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.fn(); !errors.Is(err, ErrInvalidReserves) {
				t.Fatalf("expected ErrInvalidReserves, got %v", err)
			}
		})
	}
}

func TestNewRejectsBadFee(t *testing.T) {
	for _, fee := range [][2]uint64{{0, 1000}, {997, 0}, {1001, 1000}} {
		if _, err := New(fee[0], fee[1]); !errors.Is(err, ErrInvalidFee) {
			t.Fatalf("New(%d, %d): expected ErrInvalidFee, got %v", fee[0], fee[1], err)
		}
	}
}

// Exact-output pricing never undercharges: paying the quoted input buys at
// least the requested output.
func TestOutputPriceCoversRequest(t *testing.T) {
	e := Default()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		rIn := u(uint64(rng.Int63n(1_000_000_000)) + 1)
		rOut := u(uint64(rng.Int63n(1_000_000_000)) + 2)
		want := u(uint64(rng.Int63n(int64(rOut.Uint64()-1))) + 1)

		cost, err := e.OutputPrice(want, rIn, rOut)
		if err != nil {
			t.Fatalf("output price: %v", err)
		}
		got, err := e.InputPrice(cost, rIn, rOut)
		if err != nil {
			t.Fatalf("input price: %v", err)
		}
		if got.Lt(want) {
			t.Fatalf("paid %s for %s but bought only %s (reserves %s/%s)", cost.Dec(), want.Dec(), got.Dec(), rIn.Dec(), rOut.Dec())
		}
	}
}

// Selling x and immediately selling the proceeds back never returns more
// than x.
func TestRoundTripNeverProfitsTrader(t *testing.T) {
	e := Default()
	rng := rand.New(rand.NewSource(13))

	for i := 0; i < 2000; i++ {
		x := u(uint64(rng.Int63n(1_000_000)) + 1)
		rIn := u(uint64(rng.Int63n(1_000_000_000)) + 1)
		rOut := u(uint64(rng.Int63n(1_000_000_000)) + 1)

		bought, err := e.InputPrice(x, rIn, rOut)
		if err != nil {
			t.Fatalf("input price: %v", err)
		}
		if bought.IsZero() || !bought.Lt(rOut) {
			continue
		}

		nextIn := new(uint256.Int).Add(rIn, x)
		nextOut := new(uint256.Int).Sub(rOut, bought)
		back, err := e.InputPrice(bought, nextOut, nextIn)
		if err != nil {
			t.Fatalf("input price back: %v", err)
		}
		if back.Gt(x) {
			t.Fatalf("round trip profit: sold %s got back %s", x.Dec(), back.Dec())
		}
	}
}

// The product of reserves never shrinks across an exact-input or
// exact-output trade.
func TestProductNeverDecreases(t *testing.T) {
	e := Default()
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 2000; i++ {
		rIn := u(uint64(rng.Int63n(1_000_000_000)) + 1000)
		rOut := u(uint64(rng.Int63n(1_000_000_000)) + 1000)
		k := new(uint256.Int).Mul(rIn, rOut)

		x := u(uint64(rng.Int63n(1_000_000)) + 1)
		out, err := e.InputPrice(x, rIn, rOut)
		if err != nil {
			t.Fatalf("input price: %v", err)
		}
		after := new(uint256.Int).Mul(new(uint256.Int).Add(rIn, x), new(uint256.Int).Sub(rOut, out))
		if after.Lt(k) {
			t.Fatalf("k decreased on input trade: %s < %s", after.Dec(), k.Dec())
		}

		want := u(uint64(rng.Int63n(int64(rOut.Uint64()-1))) + 1)
		in, err := e.OutputPrice(want, rIn, rOut)
		if err != nil {
			t.Fatalf("output price: %v", err)
		}
		after = new(uint256.Int).Mul(new(uint256.Int).Add(rIn, in), new(uint256.Int).Sub(rOut, want))
		if after.Lt(k) {
			t.Fatalf("k decreased on output trade: %s < %s", after.Dec(), k.Dec())
		}
	}
}
