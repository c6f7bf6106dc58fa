package scoring

import (
	"testing"

	"FlowSentry/internal/domain/models"
)

func TestCleanCandles(t *testing.T) {
	in := quietCandles(5)
	in[1].High = in[1].Low - 1 // inverted range
	in[3].Volume = -10

	out, dropped := CleanCandles(in)
	if dropped != 2 || len(out) != 3 {
		t.Fatalf("kept %d dropped %d, want 3/2", len(out), dropped)
	}
	for _, c := range out {
		if !c.Valid() {
			t.Fatalf("invalid bar survived cleaning: %+v", c)
		}
	}
}

func TestCleanTrades(t *testing.T) {
	in := retailTape(5, 1)
	in[0].Price = 0
	in[4].Quantity = -2

	out, dropped := CleanTrades(in)
	if dropped != 2 || len(out) != 3 {
		t.Fatalf("kept %d dropped %d, want 3/2", len(out), dropped)
	}
}

func TestCleanBookDoesNotMutateInput(t *testing.T) {
	in := &models.OrderBookSnapshot{
		Bids: []models.BookLevel{{Price: 100, Quantity: 5}, {Price: 0, Quantity: 5}},
		Asks: []models.BookLevel{{Price: 101, Quantity: -1}, {Price: 101.5, Quantity: 2}},
	}

	out, dropped := CleanBook(in)
	if dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	if len(out.Bids) != 1 || len(out.Asks) != 1 {
		t.Fatalf("cleaned book shape: %d bids %d asks, want 1/1", len(out.Bids), len(out.Asks))
	}
	if len(in.Bids) != 2 || len(in.Asks) != 2 {
		t.Fatalf("input snapshot was mutated")
	}

	if b, n := CleanBook(nil); b != nil || n != 0 {
		t.Fatalf("nil book: got %+v/%d", b, n)
	}
}
