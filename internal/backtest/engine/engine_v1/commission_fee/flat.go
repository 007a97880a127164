package commission_fee

// FlatCommissionFee charges a fixed amount per fill.
type FlatCommissionFee struct {
	fee float64
}

// NewFlatCommissionFee creates a flat fee model. Negative fees are treated as zero.
func NewFlatCommissionFee(fee float64) CommissionFee {
	if fee < 0 {
		fee = 0
	}

	return &FlatCommissionFee{fee: fee}
}

// Calculate returns the flat fee for any quantity.
func (c *FlatCommissionFee) Calculate(_ float64) float64 {
	return c.fee
}
