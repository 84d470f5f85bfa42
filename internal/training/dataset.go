// Package training fits the model bundle from a labeled complaint CSV.
package training

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Dataset is a loaded training corpus. Targets holds one row per document
// with a 0/1 entry per label in Labels order; Categories holds the dominant
// label per document for evaluation and reporting. Priorities is empty when
// the CSV carries no usable priority column.
type Dataset struct {
	Texts      []string
	Categories []string
	Targets    [][]float64
	Priorities []string
	Labels     []string // sorted unique categories
}

// HasPriority reports whether every row carries a priority label.
func (d *Dataset) HasPriority() bool {
	return len(d.Priorities) == len(d.Texts) && len(d.Texts) > 0
}

// LoadCSV reads a training corpus. The header must include a description
// column plus labels in one of two forms: a single category column, or one
// 0/1 column per category. A priority column is optional either way. Rows
// with an empty description or no positive label are skipped.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse training data: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("training data needs a header and at least one row")
	}

	descCol, categoryCol, priorityCol := -1, -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "description":
			descCol = i
		case "category":
			categoryCol = i
		case "priority":
			priorityCol = i
		}
	}
	if descCol < 0 {
		return nil, fmt.Errorf("training data is missing the description column")
	}

	var ds *Dataset
	if categoryCol >= 0 {
		ds, err = loadSingleColumn(rows, descCol, categoryCol, priorityCol)
	} else {
		ds, err = loadOneHotColumns(rows, descCol, priorityCol)
	}
	if err != nil {
		return nil, err
	}
	if len(ds.Texts) == 0 {
		return nil, fmt.Errorf("training data has no usable rows")
	}
	return ds, nil
}

// loadSingleColumn handles the `description,category[,priority]` layout,
// expanding the category column into one-hot targets.
func loadSingleColumn(rows [][]string, descCol, categoryCol, priorityCol int) (*Dataset, error) {
	ds := &Dataset{}
	seen := map[string]bool{}
	priorityMissing := false

	for _, row := range rows[1:] {
		if descCol >= len(row) || categoryCol >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[descCol])
		category := strings.ToLower(strings.TrimSpace(row[categoryCol]))
		if text == "" || category == "" {
			continue
		}

		ds.Texts = append(ds.Texts, text)
		ds.Categories = append(ds.Categories, category)
		seen[category] = true

		priorityMissing = appendPriority(ds, row, priorityCol) || priorityMissing
	}

	for label := range seen {
		ds.Labels = append(ds.Labels, label)
	}
	sort.Strings(ds.Labels)

	index := make(map[string]int, len(ds.Labels))
	for i, label := range ds.Labels {
		index[label] = i
	}
	ds.Targets = make([][]float64, len(ds.Categories))
	for i, category := range ds.Categories {
		row := make([]float64, len(ds.Labels))
		row[index[category]] = 1
		ds.Targets[i] = row
	}

	finishPriorities(ds, priorityCol, priorityMissing)
	return ds, nil
}

// loadOneHotColumns handles the pre-expanded layout where every column
// other than description and priority is a 0/1 category indicator.
func loadOneHotColumns(rows [][]string, descCol, priorityCol int) (*Dataset, error) {
	type labelCol struct {
		name string
		col  int
	}
	var labelCols []labelCol
	for i, name := range rows[0] {
		if i == descCol || i == priorityCol {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		labelCols = append(labelCols, labelCol{name: name, col: i})
	}
	if len(labelCols) == 0 {
		return nil, fmt.Errorf("training data has neither a category column nor one-hot category columns")
	}
	sort.Slice(labelCols, func(i, j int) bool { return labelCols[i].name < labelCols[j].name })

	ds := &Dataset{}
	for _, lc := range labelCols {
		ds.Labels = append(ds.Labels, lc.name)
	}

	priorityMissing := false
	for _, row := range rows[1:] {
		if descCol >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[descCol])
		if text == "" {
			continue
		}

		target := make([]float64, len(labelCols))
		dominant := ""
		any := false
		for j, lc := range labelCols {
			if lc.col >= len(row) {
				continue
			}
			val, err := strconv.ParseFloat(strings.TrimSpace(row[lc.col]), 64)
			if err != nil || val == 0 {
				continue
			}
			target[j] = 1
			any = true
			if dominant == "" {
				dominant = lc.name
			}
		}
		if !any {
			continue
		}

		ds.Texts = append(ds.Texts, text)
		ds.Categories = append(ds.Categories, dominant)
		ds.Targets = append(ds.Targets, target)

		priorityMissing = appendPriority(ds, row, priorityCol) || priorityMissing
	}

	finishPriorities(ds, priorityCol, priorityMissing)
	return ds, nil
}

// appendPriority records the row's priority and reports whether it was
// missing or blank.
func appendPriority(ds *Dataset, row []string, priorityCol int) bool {
	if priorityCol < 0 || priorityCol >= len(row) {
		return true
	}
	priority := strings.ToLower(strings.TrimSpace(row[priorityCol]))
	ds.Priorities = append(ds.Priorities, priority)
	return priority == ""
}

// finishPriorities drops a partially filled priority column; supervised
// priority training needs a label on every row.
func finishPriorities(ds *Dataset, priorityCol int, priorityMissing bool) {
	if priorityCol < 0 || priorityMissing {
		ds.Priorities = nil
	}
}
