package core

import "github.com/shopspring/decimal"

// Recalculate returns a copy of roommates with Debe and Recibe recomputed from
// expenses.
//
// Debe is the sum of the expenses attributed to a roommate (by RoommateID when
// set, otherwise by the first exact Nombre match). Expenses that resolve to no
// roommate add to the total but to nobody's Debe. Recibe is the even share of
// the total minus Debe, so a negative Recibe means the roommate paid more than
// their share.
//
// With no roommates there is nothing to split and ErrNoRoommates is returned
// alongside an empty slice.
func Recalculate(roommates []Roommate, expenses []Expense) ([]Roommate, error) {
	out := make([]Roommate, len(roommates))
	copy(out, roommates)
	if len(out) == 0 {
		return out, ErrNoRoommates
	}

	debe := make([]decimal.Decimal, len(out))
	total := decimal.Zero
	for _, e := range expenses {
		monto := decimal.NewFromFloat(e.Monto)
		total = total.Add(monto)
		if i, ok := FindRoommate(out, e.RoommateID, e.Roommate); ok {
			debe[i] = debe[i].Add(monto)
		}
	}

	share := total.Div(decimal.NewFromInt(int64(len(out))))
	for i := range out {
		out[i].Debe = debe[i].InexactFloat64()
		out[i].Recibe = share.Sub(debe[i]).InexactFloat64()
	}
	return out, nil
}

// Total sums the amounts of expenses.
func Total(expenses []Expense) float64 {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(decimal.NewFromFloat(e.Monto))
	}
	return total.InexactFloat64()
}
