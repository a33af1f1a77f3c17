package parsers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// SIDLayout locates the case-number columns of a SID sheet
type SIDLayout struct {
	// HeaderRows is the number of metadata rows above the data in every SID source
	HeaderRows     int `json:"header_rows" mapstructure:"header_rows" validate:"gte=0"`
	CaseNumber1Col int `json:"case_number_1_col" mapstructure:"case_number_1_col" validate:"gte=0"`
	CaseNumber2Col int `json:"case_number_2_col" mapstructure:"case_number_2_col" validate:"gte=0,nefield=CaseNumber1Col"`
}

// FIRLayout locates the columns of the FIR case sheet
type FIRLayout struct {
	HeaderRows   int `json:"header_rows" mapstructure:"header_rows" validate:"gte=0"`
	FirNumberCol int `json:"fir_number_col" mapstructure:"fir_number_col" validate:"gte=0"`
	DateCol      int `json:"date_col" mapstructure:"date_col" validate:"gte=0,nefield=FirNumberCol"`
	IONameCol    int `json:"io_name_col" mapstructure:"io_name_col" validate:"gte=0"`
	// StationLabelRow/Col address the free-text station cell of the sheet
	StationLabelRow int `json:"station_label_row" mapstructure:"station_label_row" validate:"gte=0"`
	StationLabelCol int `json:"station_label_col" mapstructure:"station_label_col" validate:"gte=0"`
}

// TableLayout is the positional layout of both source kinds
type TableLayout struct {
	SID SIDLayout `json:"sid" mapstructure:"sid"`
	FIR FIRLayout `json:"fir" mapstructure:"fir"`
}

// DefaultTableLayout returns the layout of the e-Sakshya SID export and the
// FIR case register.
func DefaultTableLayout() *TableLayout {
	return &TableLayout{
		SID: SIDLayout{
			HeaderRows:     3,
			CaseNumber1Col: 2,
			CaseNumber2Col: 10,
		},
		FIR: FIRLayout{
			HeaderRows:      4,
			FirNumberCol:    1,
			DateCol:         2,
			IONameCol:       6,
			StationLabelRow: 4,
			StationLabelCol: 1,
		},
	}
}

var layoutValidator = validator.New()

// Validate checks that every index is usable
func (l *TableLayout) Validate() error {
	if err := layoutValidator.Struct(l); err != nil {
		return fmt.Errorf("invalid table layout: %w", err)
	}
	return nil
}

// sidWidth is the minimum grid width a SID source must have
func (l SIDLayout) sidWidth() int {
	return maxInt(l.CaseNumber1Col, l.CaseNumber2Col) + 1
}

// firWidth is the minimum grid width the FIR source must have
func (l FIRLayout) firWidth() int {
	return maxInt(l.FirNumberCol, l.DateCol, l.IONameCol) + 1
}

func maxInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
