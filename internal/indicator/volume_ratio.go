package indicator

import (
	"math"

	"github.com/IvanHuYY/Stockbot/internal/types"
)

// VolumeRatio writes volume divided by its simple moving average.
type VolumeRatio struct {
	period int
}

// NewVolumeRatio creates a new volume ratio indicator over the given period.
func NewVolumeRatio(period int) *VolumeRatio {
	return &VolumeRatio{period: period}
}

func (v *VolumeRatio) Name() types.IndicatorType {
	return types.IndicatorTypeVolumeRatio
}

func (v *VolumeRatio) Columns() []string {
	return []string{types.ColumnVolumeSMARatio}
}

// Config configures the averaging window. Expected parameters: period (int).
func (v *VolumeRatio) Config(params ...any) error {
	period, err := positiveIntParam(params, 0, "period")
	if err != nil {
		return err
	}

	v.period = period

	return nil
}

func (v *VolumeRatio) Compute(bars []types.Bar) error {
	volume := volumes(bars)
	average := rollingMean(volume, v.period)
	ratio := nanSeries(len(bars))

	for i := range volume {
		if math.IsNaN(average[i]) || average[i] == 0 {
			continue
		}

		ratio[i] = volume[i] / average[i]
	}

	writeColumn(bars, types.ColumnVolumeSMARatio, ratio)

	return nil
}
