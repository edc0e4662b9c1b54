package services

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"realty/models"
)

var csvHeader = []string{
	"custom_id", "address", "city", "state", "zip_code", "price",
	"bedrooms", "bathrooms", "square_footage", "type", "date_listed",
	"description", "images", "created_by", "source_db",
}

// ExportCSV renders reconciled search results as CSV, one row per record.
// Image paths and source shards are comma-joined within their cell.
func ExportCSV(w io.Writer, listings []models.Property) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range listings {
		row := []string{
			p.CustomID,
			p.Address,
			p.City,
			p.State,
			strconv.Itoa(p.ZipCode),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			strconv.Itoa(p.Bedrooms),
			strconv.FormatFloat(p.Bathrooms, 'f', -1, 64),
			strconv.Itoa(p.SquareFootage),
			p.Type,
			p.DateListed,
			p.Description,
			strings.Join(p.Images, ","),
			p.CreatedBy,
			strings.Join(p.SourceDB, ","),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportJSON renders reconciled search results as an indented JSON array.
func ExportJSON(w io.Writer, listings []models.Property) error {
	if listings == nil {
		listings = []models.Property{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	return encoder.Encode(listings)
}
