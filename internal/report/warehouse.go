package report

import "github.com/nineaccord/salesboard/internal/domain"

type pairKey struct {
	warehouse string
	category  string
}

// cellAgg accumulates one (warehouse, category) pair.
type cellAgg struct {
	data  map[string]domain.Metric
	total domain.Metric
}

// BuildWarehouseReport pivots the main row set into warehouse -> category
// rows. A non-empty compare set adds comparison totals and percentage change
// to every row; the caller decides whether a comparison applies.
func BuildWarehouseReport(main, compare []domain.SalesRow) *domain.WarehouseReport {
	if len(main) == 0 {
		return domain.EmptyWarehouseReport()
	}

	periods := periodsDescending(main)

	cells := make(map[pairKey]*cellAgg)
	categoriesByWarehouse := make(map[string][]string)
	for _, r := range main {
		key := pairKey{warehouse: r.Warehouse, category: r.Category}
		agg, ok := cells[key]
		if !ok {
			agg = &cellAgg{data: make(map[string]domain.Metric)}
			cells[key] = agg
			categoriesByWarehouse[r.Warehouse] = append(categoriesByWarehouse[r.Warehouse], r.Category)
		}
		m := domain.MetricOf(r.Quantity)
		agg.data[r.MonthYear] = agg.data[r.MonthYear].Add(m)
		agg.total = agg.total.Add(m)
	}

	hasCompare := len(compare) > 0
	compareTotals := make(map[pairKey]domain.Metric)
	for _, r := range compare {
		key := pairKey{warehouse: r.Warehouse, category: r.Category}
		compareTotals[key] = compareTotals[key].Add(domain.MetricOf(r.Quantity))
	}

	warehouses := make([]string, 0, len(categoriesByWarehouse))
	for wh := range categoriesByWarehouse {
		warehouses = append(warehouses, wh)
	}

	subData := zeroData(periods)
	var subTotal, subCompare domain.Metric

	rows := make([]*domain.ReportNode, 0, len(warehouses)+1)
	for _, wh := range OrderWarehouses(warehouses) {
		whNode := &domain.ReportNode{
			ID:       "wh_" + wh,
			Name:     wh,
			Level:    1,
			Data:     zeroData(periods),
			IsHeader: true,
		}
		var whCompare domain.Metric

		for _, cat := range OrderCategories(categoriesByWarehouse[wh]) {
			key := pairKey{warehouse: wh, category: cat}
			agg := cells[key]

			catNode := &domain.ReportNode{
				ID:       "cat_" + wh + "_" + cat,
				Name:     cat,
				Level:    2,
				ParentID: whNode.ID,
				Data:     zeroData(periods),
				Total:    agg.total,
			}
			addData(catNode.Data, agg.data)
			if hasCompare {
				c := compareTotals[key]
				catNode.Compare = &c
				catNode.PctChange = PctChange(catNode.Total.Net, c.Net)
				whCompare = whCompare.Add(c)
			}

			addData(whNode.Data, catNode.Data)
			whNode.Total = whNode.Total.Add(catNode.Total)
			whNode.Children = append(whNode.Children, catNode)
		}

		if hasCompare {
			c := whCompare
			whNode.Compare = &c
			whNode.PctChange = PctChange(whNode.Total.Net, c.Net)
		}

		if inSet(warehouseSubtotalSet, wh) {
			addData(subData, whNode.Data)
			subTotal = subTotal.Add(whNode.Total)
			subCompare = subCompare.Add(whCompare)
		}

		rows = append(rows, whNode)

		if wh == subtotalAnchor {
			sub := &domain.ReportNode{
				ID:         subtotalID,
				Name:       subtotalName,
				Level:      0,
				Data:       subData,
				Total:      subTotal,
				IsSubtotal: true,
			}
			if hasCompare {
				c := subCompare
				sub.Compare = &c
				sub.PctChange = PctChange(sub.Total.Net, c.Net)
			}
			rows = append(rows, sub)
		}
	}

	return &domain.WarehouseReport{Periods: periods, Rows: rows}
}
