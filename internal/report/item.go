package report

import (
	"sort"

	"github.com/nineaccord/salesboard/internal/domain"
)

type itemKey struct {
	category string
	series   string
	item     string
}

// BuildItemReport pivots rows into category -> series -> item and computes
// the top series chart. Series and category values are derived from their
// children only.
func BuildItemReport(rows []domain.SalesRow) *domain.ItemReport {
	if len(rows) == 0 {
		return domain.EmptyItemReport()
	}

	periods := periodsDescending(rows)

	items := make(map[itemKey]*cellAgg)
	seriesByCategory := make(map[string]map[string]struct{})
	itemsBySeries := make(map[string]map[string]map[string]struct{})
	stockByItem := make(map[string]int)
	backorderByItem := make(map[string]int)

	for _, r := range rows {
		key := itemKey{category: r.Category, series: r.Series, item: r.ItemName}
		agg, ok := items[key]
		if !ok {
			agg = &cellAgg{data: make(map[string]domain.Metric)}
			items[key] = agg

			if seriesByCategory[r.Category] == nil {
				seriesByCategory[r.Category] = make(map[string]struct{})
				itemsBySeries[r.Category] = make(map[string]map[string]struct{})
			}
			seriesByCategory[r.Category][r.Series] = struct{}{}
			if itemsBySeries[r.Category][r.Series] == nil {
				itemsBySeries[r.Category][r.Series] = make(map[string]struct{})
			}
			itemsBySeries[r.Category][r.Series][r.ItemName] = struct{}{}
		}
		m := domain.MetricOf(r.Quantity)
		agg.data[r.MonthYear] = agg.data[r.MonthYear].Add(m)
		agg.total = agg.total.Add(m)

		// stock and backorder are snapshots: keep the largest observation
		if cur, seen := stockByItem[r.ItemName]; !seen || r.Stock > cur {
			stockByItem[r.ItemName] = r.Stock
		}
		if cur, seen := backorderByItem[r.ItemName]; !seen || r.Backorder > cur {
			backorderByItem[r.ItemName] = r.Backorder
		}
	}

	categories := make([]string, 0, len(seriesByCategory))
	for c := range seriesByCategory {
		categories = append(categories, c)
	}

	subData := zeroData(periods)
	var subTotal domain.Metric

	out := make([]*domain.ReportNode, 0, len(categories)+1)
	for _, cat := range OrderCategories(categories) {
		catNode := &domain.ReportNode{
			ID:    "cat_" + cat,
			Name:  cat,
			Level: 1,
			Data:  zeroData(periods),
		}

		for _, series := range sortedKeys(seriesByCategory[cat]) {
			seriesNode := &domain.ReportNode{
				ID:       "series_" + cat + "_" + series,
				Name:     series,
				Level:    2,
				ParentID: catNode.ID,
				Data:     zeroData(periods),
			}

			for _, item := range sortedKeys(itemsBySeries[cat][series]) {
				agg := items[itemKey{category: cat, series: series, item: item}]
				stock := stockByItem[item]
				backorder := backorderByItem[item]
				itemNode := &domain.ReportNode{
					ID:        "item_" + cat + "_" + series + "_" + item,
					Name:      item,
					Level:     3,
					ParentID:  seriesNode.ID,
					Data:      zeroData(periods),
					Total:     agg.total,
					Stock:     &stock,
					Backorder: &backorder,
				}
				addData(itemNode.Data, agg.data)

				addData(seriesNode.Data, itemNode.Data)
				seriesNode.Total = seriesNode.Total.Add(itemNode.Total)
				seriesNode.Children = append(seriesNode.Children, itemNode)
			}

			addData(catNode.Data, seriesNode.Data)
			catNode.Total = catNode.Total.Add(seriesNode.Total)
			catNode.Children = append(catNode.Children, seriesNode)
		}

		if inSet(categorySubtotalSet, cat) {
			addData(subData, catNode.Data)
			subTotal = subTotal.Add(catNode.Total)
		}

		out = append(out, catNode)

		if cat == subtotalAnchor {
			out = append(out, &domain.ReportNode{
				ID:         subtotalID,
				Name:       subtotalName,
				Level:      0,
				Data:       subData,
				Total:      subTotal,
				IsSubtotal: true,
			})
		}
	}

	return &domain.ItemReport{
		Periods:   periods,
		Rows:      out,
		TopSeries: TopSeries(rows, topSeriesLimit),
	}
}

// TopSeries sums quantity per series, ignoring the case category, and returns
// the n largest. Ties are broken by series name.
func TopSeries(rows []domain.SalesRow, n int) []domain.SeriesQuantity {
	sums := make(map[string]int)
	for _, r := range rows {
		if r.Category == excludedChartCategory {
			continue
		}
		sums[r.Series] += r.Quantity
	}

	out := make([]domain.SeriesQuantity, 0, len(sums))
	for series, qty := range sums {
		out = append(out, domain.SeriesQuantity{Series: series, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Series < out[j].Series
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
