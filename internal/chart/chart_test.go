package chart

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

func row(kv ...any) table.Row {
	r := table.Row{}
	for i := 0; i+1 < len(kv); i += 2 {
		k := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			r[k] = table.Infer(v)
		case int:
			r[k] = table.Number(float64(v))
		case float64:
			r[k] = table.Number(v)
		case nil:
			r[k] = table.Empty()
		}
	}
	return r
}

func salesRows() []table.Row {
	return []table.Row{
		row("region", "East", "sales", 100),
		row("region", "West", "sales", 50),
		row("region", "East", "sales", 30),
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	cls := Classify(salesRows(), []string{"region", "sales"})
	assert.Equal(t, []string{"region"}, cls.Categorical)
	assert.Equal(t, []string{"sales"}, cls.Numeric)

	ch := Build(salesRows(), []string{"region", "sales"}, Request{Title: "Sales by region"})
	require.Equal(t, CaseCategorySum, ch.Case)
	assert.Equal(t, []string{"East", "West"}, ch.Payload.Labels)
	require.Len(t, ch.Payload.Series, 1)
	assert.Equal(t, []float64{130, 50}, ch.Payload.Series[0].Values)
	assert.Equal(t, []string{"region", "sales"}, ch.Columns)
	assert.Len(t, ch.Sample, 3)
}

func TestClassifyEmpty(t *testing.T) {
	cls := Classify(nil, []string{"a", "b"})
	assert.Empty(t, cls.Numeric)
	assert.Empty(t, cls.Categorical)
	assert.False(t, cls.Usable())
}

func TestClassifyExcludesIDsAndConstants(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 30; i++ {
		rows = append(rows, row("id", fmt.Sprintf("ID-%03d", i), "flag", "yes", "tier", []string{"a", "b", "c"}[i%3]))
	}
	cls := Classify(rows, []string{"id", "flag", "tier"})
	assert.Equal(t, []string{"tier"}, cls.Categorical)
	assert.Empty(t, cls.Numeric)
}

func TestClassifyNumericRatio(t *testing.T) {
	// 4 of 10 numeric is above 30%.
	var rows []table.Row
	for i := 0; i < 10; i++ {
		if i < 4 {
			rows = append(rows, row("v", i+1))
		} else {
			rows = append(rows, row("v", "n/a"))
		}
	}
	assert.Equal(t, []string{"v"}, Classify(rows, []string{"v"}).Numeric)

	// 3 of 10 is not.
	rows[3] = row("v", "n/a")
	assert.Empty(t, Classify(rows, []string{"v"}).Numeric)
}

func TestClassifySampleWindow(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 60; i++ {
		rows = append(rows, row("v", "text"))
	}
	for i := 0; i < 200; i++ {
		rows = append(rows, row("v", i))
	}
	assert.Empty(t, Classify(rows, []string{"v"}).Numeric)
}

func TestClassifyOptionsOverride(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 40; i++ {
		rows = append(rows, row("c", fmt.Sprintf("k%d", i%5)))
	}
	o := ClassifierOptions{MaxCategories: 4}
	assert.Empty(t, o.Classify(rows, []string{"c"}).Categorical)
	assert.Equal(t, []string{"c"}, Classify(rows, []string{"c"}).Categorical)
}

func TestAggregateUngroupedKeepsOrder(t *testing.T) {
	rows := []table.Row{row("v", 3), row("v", "oops"), row("v", 1)}
	labels, s := Aggregate(rows, "v", OpSum, "")
	assert.Equal(t, []string{"Record 1", "Record 2", "Record 3"}, labels)
	assert.Equal(t, []float64{3, 0, 1}, s.Values)
}

func TestAggregateUngroupedCountIsOnePerRow(t *testing.T) {
	rows := []table.Row{row("v", 3), row("v", nil), row("v", "x")}
	labels, s := Aggregate(rows, "v", OpCount, "")
	assert.Len(t, labels, 3)
	assert.Equal(t, []float64{1, 1, 1}, s.Values)

	_, grouped := Aggregate(rows, "v", OpCount, "v")
	sum := 0.0
	for _, v := range grouped.Values {
		sum += v
	}
	assert.Equal(t, float64(len(rows)), sum)
}

func TestAggregatePlaceholderAndCoercion(t *testing.T) {
	rows := []table.Row{
		row("g", nil, "v", 5),
		row("g", "a", "v", "x"),
		row("g", "a", "v", 2),
		row("g", 0, "v", 1),
	}
	labels, s := Aggregate(rows, "v", OpSum, "g")
	assert.Equal(t, []string{UnknownCategory, "a", "0"}, labels)
	assert.Equal(t, []float64{5, 2, 1}, s.Values)

	labels, s = Aggregate(rows, "v", OpCount, "g")
	assert.Equal(t, []string{"a", UnknownCategory, "0"}, labels)
	assert.Equal(t, []float64{2, 1, 1}, s.Values)
}

func TestAggregateAverageRounds(t *testing.T) {
	rows := []table.Row{row("g", "a", "v", 1), row("g", "a", "v", 2)}
	_, s := Aggregate(rows, "v", OpAverage, "g")
	assert.Equal(t, []float64{2}, s.Values)
}

func TestAggregateEmpty(t *testing.T) {
	labels, s := Aggregate(nil, "v", OpSum, "g")
	assert.Empty(t, labels)
	assert.NotNil(t, s.Values)
	assert.Empty(t, s.Values)
}

func TestTopTenSorted(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 15; i++ {
		for j := 0; j <= i%4; j++ {
			rows = append(rows, row("cat", fmt.Sprintf("c%02d", i), "amount", i+1))
		}
	}
	o := ClassifierOptions{MaxCategories: 50}
	ch := Build(rows, []string{"cat", "amount"}, Request{}, WithClassifier(o))
	require.Equal(t, CaseCategorySum, ch.Case)
	vals := ch.Payload.Series[0].Values
	require.Len(t, vals, 10)
	require.Len(t, ch.Payload.Labels, 10)
	for i := 1; i < len(vals); i++ {
		assert.GreaterOrEqual(t, vals[i-1], vals[i])
	}
}

func TestCategoryCountTopTen(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 12; i++ {
		for j := 0; j < 12-i; j++ {
			rows = append(rows, row("city", fmt.Sprintf("city-%d", i)))
		}
	}
	ch := Build(rows, []string{"city"}, Request{})
	require.Equal(t, CaseCategoryCount, ch.Case)
	require.Len(t, ch.Payload.Labels, 10)
	assert.Equal(t, "city-0", ch.Payload.Labels[0])
	assert.Equal(t, float64(12), ch.Payload.Series[0].Values[0])
}

func TestDistributionFifteenRows(t *testing.T) {
	var rows []table.Row
	for i := 1; i <= 20; i++ {
		rows = append(rows, row("n", i))
	}
	ch := Build(rows, []string{"n"}, Request{})
	require.Equal(t, CaseNumericOnly, ch.Case)
	require.Len(t, ch.Payload.Series, 1)
	want := make([]float64, 15)
	for i := range want {
		want[i] = float64(i + 1)
	}
	assert.Equal(t, want, ch.Payload.Series[0].Values)
	assert.Len(t, ch.Payload.Labels, 15)
}

func numericRows(n int) []table.Row {
	var rows []table.Row
	for i := 0; i < n; i++ {
		rows = append(rows, row("a", i, "b", i*2, "c", i*3, "d", i*4))
	}
	return rows
}

func TestMultiNumeric(t *testing.T) {
	ch := Build(numericRows(20), []string{"a", "b", "c", "d"}, Request{Title: "Totals"})
	require.Equal(t, CaseNumericOnly, ch.Case)
	assert.Len(t, ch.Payload.Series, 3)
	assert.Len(t, ch.Payload.Labels, 8)
	assert.Equal(t, []string{"a", "b", "c"}, ch.Columns)
	assert.True(t, ch.Payload.Valid())
}

func TestRecordComparison(t *testing.T) {
	for _, req := range []Request{
		{Title: "Revenue vs cost"},
		{Title: "Comparación de ingresos"},
		{Title: "Margins", Compare: true},
	} {
		ch := Build(numericRows(20), []string{"a", "b", "c", "d"}, req)
		require.Equal(t, CaseRecordComparison, ch.Case, req.Title)
		assert.Len(t, ch.Payload.Labels, 10)
		assert.Equal(t, "Record 1", ch.Payload.Labels[0])
		assert.Equal(t, []string{"a", "b"}, ch.Columns)
	}
	ch := Build(numericRows(20), []string{"a", "b"}, Request{Title: "Canvas sizes"})
	assert.Equal(t, CaseNumericOnly, ch.Case)
}

func TestGroupedAveragesPriority(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 30; i++ {
		rows = append(rows, row(
			"dept", []string{"ops", "eng", "sales"}[i%3],
			"salary", 1000+i*37,
			"age", 20+i*7%41,
		))
	}
	ch := Build(rows, []string{"dept", "salary", "age"}, Request{Title: "Salary vs age"})
	require.Equal(t, CaseGroupedAverages, ch.Case)
	assert.Len(t, ch.Payload.Series, 2)
	assert.LessOrEqual(t, len(ch.Payload.Labels), 8)
	assert.Equal(t, []string{"dept", "salary", "age"}, ch.Columns)
	assert.True(t, ch.Payload.Valid())
}

func TestGroupedAveragesTopEightByMembers(t *testing.T) {
	var rows []table.Row
	for g := 0; g < 10; g++ {
		for j := 0; j <= g; j++ {
			rows = append(rows, row("g", fmt.Sprintf("g%d", g), "x", 10, "y", 20+j))
		}
	}
	ch := Build(rows, []string{"g", "x", "y"}, Request{})
	require.Equal(t, CaseGroupedAverages, ch.Case)
	require.Len(t, ch.Payload.Labels, 8)
	assert.Equal(t, "g9", ch.Payload.Labels[0])
	assert.Equal(t, []float64{10, 10, 10, 10, 10, 10, 10, 10}, ch.Payload.Series[0].Values)
}

func TestFallback(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 10; i++ {
		rows = append(rows, row("name", fmt.Sprintf("person %d", i)))
	}
	ch := Build(rows, []string{"name"}, Request{Title: "Churn"})
	require.Equal(t, CaseFallback, ch.Case)
	assert.True(t, ch.IsFallback())
	assert.Len(t, ch.Payload.Labels, 5)
	require.Len(t, ch.Payload.Series, 2)
	for _, s := range ch.Payload.Series {
		for _, v := range s.Values {
			assert.GreaterOrEqual(t, v, 10.0)
			assert.Less(t, v, 110.0)
		}
	}
	again := Build(rows, []string{"name"}, Request{Title: "Churn"})
	assert.Equal(t, ch.Payload, again.Payload)
}

func TestFallbackOnEmptyInput(t *testing.T) {
	ch := Build(nil, nil, Request{})
	assert.Equal(t, CaseFallback, ch.Case)
	assert.Empty(t, ch.Columns)
	assert.Empty(t, ch.Sample)

	a := Build(nil, nil, Request{}, WithSeed(7))
	b := Build(nil, nil, Request{}, WithSeed(7))
	assert.Equal(t, a.Payload, b.Payload)
}

func TestBuildIdempotent(t *testing.T) {
	cols := []string{"region", "sales"}
	a, err := json.Marshal(Build(salesRows(), cols, Request{Title: "x"}))
	require.NoError(t, err)
	b, err := json.Marshal(Build(salesRows(), cols, Request{Title: "x"}))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestHint(t *testing.T) {
	rows := []table.Row{
		row("region", "East", "sales", 100, "cost", 10),
		row("region", "West", "sales", 50, "cost", nil),
		row("region", "East", "sales", 30, "cost", 5),
	}
	cols := []string{"region", "sales", "cost"}

	ch := Build(rows, cols, Request{Hint: &Hint{XColumns: []string{"region"}, Operation: "count"}})
	require.Equal(t, CaseHint, ch.Case)
	assert.Equal(t, []string{"East", "West"}, ch.Payload.Labels)
	assert.Equal(t, []float64{2, 1}, ch.Payload.Series[0].Values)

	ch = Build(rows, cols, Request{Hint: &Hint{XColumns: []string{"sales", "cost"}, XIsList: true, Operation: "sum"}})
	require.Equal(t, CaseHint, ch.Case)
	assert.Equal(t, []string{"sales", "cost"}, ch.Payload.Labels)
	assert.Equal(t, []float64{180, 15}, ch.Payload.Series[0].Values)

	ch = Build(rows, cols, Request{Hint: &Hint{XColumns: []string{"sales", "cost"}, XIsList: true, Operation: "count"}})
	assert.Equal(t, []float64{3, 2}, ch.Payload.Series[0].Values)

	ch = Build(rows, cols, Request{Hint: &Hint{ChartType: "Bar", XColumns: []string{"region"}, Operation: "sum", YColumn: "sales"}})
	require.Equal(t, CaseHint, ch.Case)
	assert.Equal(t, "bar", ch.ChartType)
	assert.Equal(t, []float64{130, 50}, ch.Payload.Series[0].Values)

	ch = Build(rows, cols, Request{Hint: &Hint{XColumns: []string{"region"}, Operation: " SUM ", YColumn: "sales"}})
	require.Equal(t, CaseHint, ch.Case)
	assert.Equal(t, []float64{130, 50}, ch.Payload.Series[0].Values)
}

func TestInvalidHintFallsThrough(t *testing.T) {
	cols := []string{"region", "sales"}
	for _, h := range []*Hint{
		{XColumns: []string{"missing"}, Operation: "count"},
		{XColumns: []string{"region"}, Operation: "median"},
		{XColumns: []string{"region"}, Operation: "mean", YColumn: "sales"},
		{XColumns: []string{"region"}, Operation: "sum"},
		{},
	} {
		ch := Build(salesRows(), cols, Request{Hint: h})
		assert.Equal(t, CaseCategorySum, ch.Case)
	}
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp("mean")
	require.NoError(t, err)
	assert.Equal(t, OpAverage, op)
	_, err = ParseOp("max")
	assert.Error(t, err)
}
