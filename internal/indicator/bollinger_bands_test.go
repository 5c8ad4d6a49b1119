package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BollingerBandsTestSuite struct {
	suite.Suite
}

func TestBollingerBandsSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsTestSuite))
}

func (suite *BollingerBandsTestSuite) TestBands() {
	values := []float64{1, 2, 3, 4, 5}
	result, err := BollingerBands(values, 3, 2)
	suite.Require().NoError(err)

	suite.True(math.IsNaN(result.Middle[1]))
	// window {3,4,5}: mean 4, sample std 1
	suite.InDelta(4.0, result.Middle[4], 1e-12)
	suite.InDelta(6.0, result.Upper[4], 1e-12)
	suite.InDelta(2.0, result.Lower[4], 1e-12)
}

func (suite *BollingerBandsTestSuite) TestInvalidStdDev() {
	_, err := BollingerBands([]float64{1, 2, 3}, 2, 0)
	suite.Error(err)
}
