package commission_fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestFlatCommissionFee() {
	fee := NewFlatCommissionFee(1.5)

	tests := []struct {
		name     string
		quantity float64
	}{
		{"single share", 1},
		{"round lot", 100},
		{"large order", 25000},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(1.5, fee.Calculate(tc.quantity))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestFlatCommissionFeeNegative() {
	suite.Equal(0.0, NewFlatCommissionFee(-3).Calculate(100))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()

	suite.Equal(0.0, fee.Calculate(0))
	suite.Equal(0.0, fee.Calculate(10000))
}

func (suite *CommissionFeeTestSuite) TestInteractiveBrokerCommissionFee() {
	fee := NewInteractiveBrokerCommissionFee()

	tests := []struct {
		name     string
		quantity float64
		expected float64
	}{
		{"small quantity - min fee", 10, 1.0},
		{"quantity at threshold", 200, 1.0},
		{"large quantity", 1000, 5.0},
		{"very large quantity", 10000, 50.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, fee.Calculate(tc.quantity))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	tests := []struct {
		name     string
		broker   Broker
		quantity float64
		expected float64
	}{
		{"flat", BrokerFlat, 1000, 2.0},
		{"interactive broker", BrokerInteractiveBroker, 1000, 5.0},
		{"zero commission", BrokerZero, 1000, 0.0},
		{"empty broker defaults to flat", Broker(""), 1000, 2.0},
		{"unknown broker defaults to flat", Broker("unknown"), 1000, 2.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			handler := GetCommissionFeeHandler(tc.broker, 2.0)
			suite.NotNil(handler)
			suite.Equal(tc.expected, handler.Calculate(tc.quantity))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestAllBrokers() {
	suite.Len(AllBrokers, 3)
	suite.Contains(AllBrokers, BrokerFlat)
	suite.Contains(AllBrokers, BrokerInteractiveBroker)
	suite.Contains(AllBrokers, BrokerZero)
}
