package domain

// Metric is a net/returns pair. Neg only accumulates negative quantities.
type Metric struct {
	Net int `json:"net"`
	Neg int `json:"neg"`
}

// Add returns the element-wise sum of m and o.
func (m Metric) Add(o Metric) Metric {
	return Metric{Net: m.Net + o.Net, Neg: m.Neg + o.Neg}
}

// MetricOf converts a single signed quantity into a Metric.
func MetricOf(quantity int) Metric {
	m := Metric{Net: quantity}
	if quantity < 0 {
		m.Neg = quantity
	}
	return m
}

// ReportNode is one row of a pivot report. Children are owned by the node;
// ParentID is only a back-reference for rendering.
type ReportNode struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Level      int               `json:"level"`
	ParentID   string            `json:"parentId,omitempty"`
	Data       map[string]Metric `json:"data"`
	Total      Metric            `json:"total"`
	Compare    *Metric           `json:"compare,omitempty"`
	PctChange  *float64          `json:"pct_change,omitempty"`
	Stock      *int              `json:"stock,omitempty"`
	Backorder  *int              `json:"backorder,omitempty"`
	IsHeader   bool              `json:"is_header,omitempty"`
	IsSubtotal bool              `json:"is_subtotal,omitempty"`
	Children   []*ReportNode     `json:"children,omitempty"`
}

// WarehouseReport is the warehouse -> category pivot.
type WarehouseReport struct {
	Periods []string      `json:"months"`
	Rows    []*ReportNode `json:"rows"`
}

// SeriesQuantity is one bar of the top series chart.
type SeriesQuantity struct {
	Series   string `json:"series"`
	Quantity int    `json:"quantity"`
}

// ItemReport is the category -> series -> item pivot.
type ItemReport struct {
	Periods   []string         `json:"months"`
	Rows      []*ReportNode    `json:"rows"`
	TopSeries []SeriesQuantity `json:"top_series_data"`
}

// FilterOptions lists the values available to the filter UI for one brand.
type FilterOptions struct {
	Warehouses []string `json:"warehouses"`
	Categories []string `json:"categories"`
	Years      []string `json:"years"`
	Months     []string `json:"months"`
}

// EmptyWarehouseReport returns a report with empty, non-nil sequences.
func EmptyWarehouseReport() *WarehouseReport {
	return &WarehouseReport{Periods: []string{}, Rows: []*ReportNode{}}
}

// EmptyItemReport returns a report with empty, non-nil sequences.
func EmptyItemReport() *ItemReport {
	return &ItemReport{Periods: []string{}, Rows: []*ReportNode{}, TopSeries: []SeriesQuantity{}}
}

// EmptyFilterOptions returns four empty option lists.
func EmptyFilterOptions() *FilterOptions {
	return &FilterOptions{
		Warehouses: []string{},
		Categories: []string{},
		Years:      []string{},
		Months:     []string{},
	}
}
