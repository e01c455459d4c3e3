package reshape

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepulse/internal/dataset"
)

func record(year int, code string, flow dataset.Flow, usd float64) dataset.TradeRecord {
	return dataset.TradeRecord{
		Year:         year,
		Country:      "Finland",
		Category:     code + "_category",
		CategoryCode: code,
		Flow:         flow,
		TradeUSD:     usd,
	}
}

func TestAggregate(t *testing.T) {
	records := []dataset.TradeRecord{
		record(2010, "01", dataset.FlowExport, 1_000_000),
		record(2010, "01", dataset.FlowExport, 500_000),
		record(2010, "01", dataset.FlowImport, 9_000_000), // filtered out
		record(2011, "01", dataset.FlowExport, 1_500_000),
		record(2010, "02", dataset.FlowExport, 2_000_000),
	}

	cells := Aggregate(records, dataset.FlowExport, true)
	require.Len(t, cells, 3)

	assert.Equal(t, AggregatedCell{Year: 2010, Code: "01", TotalValue: 1.5}, cells[0])
	assert.Equal(t, AggregatedCell{Year: 2011, Code: "01", TotalValue: 1.5}, cells[1])
	assert.Equal(t, AggregatedCell{Year: 2010, Code: "02", TotalValue: 2.0}, cells[2])
}

func TestAggregate_TotalMatchesFilteredInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var records []dataset.TradeRecord
	var wantTotal float64
	codes := []string{"01", "02", "10", "27"}
	for i := 0; i < 500; i++ {
		usd := rng.Float64() * 1e7
		flow := dataset.FlowExport
		if i%3 == 0 {
			flow = dataset.FlowImport
		} else {
			wantTotal += usd / 1e6
		}
		records = append(records, record(2000+rng.Intn(5), codes[rng.Intn(len(codes))], flow, usd))
	}

	var gotTotal float64
	for _, cell := range Aggregate(records, dataset.FlowExport, true) {
		gotTotal += cell.TotalValue
	}
	assert.InDelta(t, wantTotal, gotTotal, 1e-9)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	records := []dataset.TradeRecord{
		record(2010, "01", dataset.FlowExport, 100),
		record(2010, "01", dataset.FlowExport, 200),
		record(2011, "02", dataset.FlowExport, 300),
	}
	reversed := []dataset.TradeRecord{records[2], records[1], records[0]}

	assert.Equal(t,
		Aggregate(records, dataset.FlowExport, true),
		Aggregate(reversed, dataset.FlowExport, true))
}

func TestAggregate_UncategorizedBucket(t *testing.T) {
	records := []dataset.TradeRecord{
		record(2010, "01", dataset.FlowExport, 1_000_000),
		record(2010, "", dataset.FlowExport, 7_000_000),
	}

	dropped := Aggregate(records, dataset.FlowExport, true)
	require.Len(t, dropped, 1)
	assert.Equal(t, "01", dropped[0].Code)

	kept := Aggregate(records, dataset.FlowExport, false)
	require.Len(t, kept, 2)
	assert.Equal(t, "", kept[0].Code)
	assert.Equal(t, 7.0, kept[0].TotalValue)
}

func TestAggregate_EmptyGroupsAbsentNotZero(t *testing.T) {
	records := []dataset.TradeRecord{
		record(2010, "01", dataset.FlowExport, 1_000_000),
	}

	cells := Aggregate(records, dataset.FlowImport, true)
	assert.Empty(t, cells)
}
