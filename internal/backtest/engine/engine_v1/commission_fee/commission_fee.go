package commission_fee

// CommissionFee prices the commission of a single fill.
type CommissionFee interface {
	// Calculate the commission fee for a given quantity and returns the fee in USD
	Calculate(quantity float64) float64
}

type Broker string

const (
	// BrokerFlat charges the same fee on every fill regardless of size.
	BrokerFlat              Broker = "flat"
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerFlat,
	BrokerInteractiveBroker,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model of the broker.
// flatFee is only used by BrokerFlat. Unknown brokers fall back to the flat model.
func GetCommissionFeeHandler(broker Broker, flatFee float64) CommissionFee {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewFlatCommissionFee(flatFee)
	}
}
