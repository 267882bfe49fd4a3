package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBrand is returned when a brand code is not one of the known brands.
var ErrUnknownBrand = errors.New("unknown brand")

// Brand identifies a partition of sales data. Each brand owns exactly one
// record table and one spreadsheet tab.
type Brand string

const (
	BrandNine Brand = "nine"
	BrandCuru Brand = "curu"
)

// BrandAll is accepted by ingestion to run every brand in sequence.
const BrandAll = "all"

type brandInfo struct {
	table       string
	displayName string
	sheetTab    string
}

var brands = map[Brand]brandInfo{
	BrandNine: {table: "sales_data_nine", displayName: "NINE ACCORD", sheetTab: "사이트DB"},
	BrandCuru: {table: "sales_data_curu", displayName: "CURUNURU", sheetTab: "쿠루누루DB"},
}

// Brands returns every known brand in a stable order.
func Brands() []Brand {
	return []Brand{BrandNine, BrandCuru}
}

// ParseBrand validates a brand code coming from a request or the CLI.
func ParseBrand(code string) (Brand, error) {
	b := Brand(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := brands[b]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBrand, code)
	}
	return b, nil
}

// ParseBrandTarget resolves an ingestion target, which may be BrandAll.
func ParseBrandTarget(code string) ([]Brand, error) {
	if strings.EqualFold(strings.TrimSpace(code), BrandAll) {
		return Brands(), nil
	}
	b, err := ParseBrand(code)
	if err != nil {
		return nil, err
	}
	return []Brand{b}, nil
}

// Valid reports whether b is a known brand.
func (b Brand) Valid() bool {
	_, ok := brands[b]
	return ok
}

// Table returns the record table for the brand. The name comes from a fixed
// map and never from caller input.
func (b Brand) Table() string {
	return brands[b].table
}

// DisplayName returns the human readable brand label.
func (b Brand) DisplayName() string {
	return brands[b].displayName
}

// SheetTab returns the spreadsheet tab holding the brand's sales rows.
func (b Brand) SheetTab() string {
	return brands[b].sheetTab
}

func (b Brand) String() string {
	return string(b)
}
