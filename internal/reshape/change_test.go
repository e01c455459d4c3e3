package reshape

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepulse/internal/dataset"
	pipelineerrors "tradepulse/internal/errors"
)

func TestChanges(t *testing.T) {
	wide, err := Pivot([]AggregatedCell{
		{Year: 2010, Code: "01", TotalValue: 1.0},
		{Year: 2011, Code: "01", TotalValue: 1.5},
		{Year: 2012, Code: "01", TotalValue: 1.2},
		{Year: 2010, Code: "02", TotalValue: 2.0},
		{Year: 2011, Code: "02", TotalValue: 2.0},
		{Year: 2012, Code: "02", TotalValue: 2.6},
	})
	require.NoError(t, err)

	nominal, percent, err := Changes(wide)
	require.NoError(t, err)

	// Exactly one fewer column, labeled by the later year of each pair.
	assert.Equal(t, []int{2011, 2012}, nominal.Years())
	assert.Equal(t, []int{2011, 2012}, percent.Years())
	assert.Equal(t, wide.NumCols()-1, nominal.NumCols())

	assert.Equal(t, Some(0.5), nominal.Cell("01", 2011))
	assert.InDelta(t, -0.3, nominal.Cell("01", 2012).Value, 1e-12)
	assert.Equal(t, Some(0.0), nominal.Cell("02", 2011))
	assert.InDelta(t, 0.6, nominal.Cell("02", 2012).Value, 1e-12)

	assert.Equal(t, Some(0.5), percent.Cell("01", 2011))
	assert.InDelta(t, -0.2, percent.Cell("01", 2012).Value, 1e-12)
	assert.Equal(t, Some(0.0), percent.Cell("02", 2011))
	assert.InDelta(t, 0.3, percent.Cell("02", 2012).Value, 1e-12)
}

func TestChanges_MissingAndZeroBase(t *testing.T) {
	wide, err := Pivot([]AggregatedCell{
		{Year: 2010, Code: "01", TotalValue: 0.0}, // zero exports in base year
		{Year: 2011, Code: "01", TotalValue: 1.0},
		{Year: 2011, Code: "02", TotalValue: 2.0}, // base year missing entirely
	})
	require.NoError(t, err)

	nominal, percent, err := Changes(wide)
	require.NoError(t, err)

	// Nominal change over a zero base is defined.
	assert.Equal(t, Some(1.0), nominal.Cell("01", 2011))

	// Percent change over a zero base is missing, never +Inf.
	assert.False(t, percent.Cell("01", 2011).Valid)

	// Missing base year produces missing cells in both outputs.
	assert.False(t, nominal.Cell("02", 2011).Valid)
	assert.False(t, percent.Cell("02", 2011).Valid)
}

func TestChanges_NonContiguousYearsAlignByLabel(t *testing.T) {
	// 2013 is absent: the 2014 column must not difference against 2012.
	wide, err := Pivot([]AggregatedCell{
		{Year: 2011, Code: "01", TotalValue: 1.0},
		{Year: 2012, Code: "01", TotalValue: 2.0},
		{Year: 2014, Code: "01", TotalValue: 9.0},
	})
	require.NoError(t, err)

	nominal, _, err := Changes(wide)
	require.NoError(t, err)

	assert.Equal(t, []int{2012, 2014}, nominal.Years())
	assert.Equal(t, Some(1.0), nominal.Cell("01", 2012))
	assert.False(t, nominal.Cell("01", 2014).Valid, "gap year must not produce a cross-gap difference")
}

func TestChanges_SingleColumnFails(t *testing.T) {
	wide, err := Pivot([]AggregatedCell{{Year: 2010, Code: "01", TotalValue: 1.0}})
	require.NoError(t, err)

	_, _, err = Changes(wide)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, pipelineerrors.ErrEmptyResult))
}

// TestGoldenScenario walks the three-record example end to end through
// aggregation, pivot and differencing.
func TestGoldenScenario(t *testing.T) {
	records := []dataset.TradeRecord{
		{Year: 2010, Category: "01_live_animals", CategoryCode: "01", Flow: dataset.FlowExport, TradeUSD: 1_000_000},
		{Year: 2011, Category: "01_live_animals", CategoryCode: "01", Flow: dataset.FlowExport, TradeUSD: 1_500_000},
		{Year: 2010, Category: "02_meat", CategoryCode: "02", Flow: dataset.FlowExport, TradeUSD: 2_000_000},
	}

	wide, err := Pivot(Aggregate(records, dataset.FlowExport, true))
	require.NoError(t, err)

	assert.Equal(t, Some(1.0), wide.Cell("01", 2010))
	assert.Equal(t, Some(1.5), wide.Cell("01", 2011))
	assert.Equal(t, Some(2.0), wide.Cell("02", 2010))
	assert.False(t, wide.Cell("02", 2011).Valid)

	nominal, _, err := Changes(wide)
	require.NoError(t, err)

	assert.Equal(t, Some(0.5), nominal.Cell("01", 2011))
	assert.False(t, nominal.Cell("02", 2011).Valid)
}
