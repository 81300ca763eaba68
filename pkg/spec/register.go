package spec

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var registerHeader = []string{"year", "units", "capacity_kw", "diameter_m", "hub_height_m", "nacelle", "tower"}

// LoadRegister reads a turbine register CSV. The header must match
// year,units,capacity_kw,diameter_m,hub_height_m,nacelle,tower. Each row
// describes units identical turbines installed in the same year.
func LoadRegister(filename string) ([]TurbineRecord, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open turbine register %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read turbine register CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("turbine register CSV must have header and at least one data row")
	}

	header := records[0]
	if !validateHeader(header, registerHeader) {
		return nil, fmt.Errorf("turbine register CSV header mismatch. Expected: %v, Got: %v", registerHeader, header)
	}

	out := make([]TurbineRecord, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(registerHeader) {
			return nil, fmt.Errorf("turbine register CSV row %d: expected %d columns, got %d", i+2, len(registerHeader), len(record))
		}
		rec, err := parseTurbineRecord(record)
		if err != nil {
			return nil, fmt.Errorf("turbine register CSV row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseTurbineRecord(record []string) (TurbineRecord, error) {
	year, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return TurbineRecord{}, fmt.Errorf("invalid year %q: %w", record[0], err)
	}

	units, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return TurbineRecord{}, fmt.Errorf("invalid units %q: %w", record[1], err)
	}

	nums := make([]float64, 3)
	for k, name := range registerHeader[2:5] {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[k+2]), 64)
		if err != nil {
			return TurbineRecord{}, fmt.Errorf("invalid %s %q: %w", name, record[k+2], err)
		}
		nums[k] = v
	}

	nacelle, err := ParseNacelleTech(strings.TrimSpace(record[5]))
	if err != nil {
		return TurbineRecord{}, err
	}
	tower, err := ParseTowerType(strings.TrimSpace(record[6]))
	if err != nil {
		return TurbineRecord{}, err
	}

	return TurbineRecord{
		Year:       year,
		Units:      units,
		CapacityKW: nums[0],
		DiameterM:  nums[1],
		HubHeightM: nums[2],
		Nacelle:    nacelle,
		Tower:      tower,
	}, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != col {
			return false
		}
	}
	return true
}
