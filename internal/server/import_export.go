package server

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/branchd-dev/adminconsole/internal/models"
)

const maxImportSize = 10 << 20 // 10MB

// exportColumns is the column order of exported workbooks; imports accept
// the same headers in any order
var exportColumns = []string{"ID", "Name", "Email", "Phone", "Status", "Gender", "Created At"}

// ImportResult summarizes an import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// readCustomerRows returns the rows of an uploaded .xlsx or .csv file
func readCustomerRows(file io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		workbook, err := excelize.OpenReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read workbook: %w", err)
		}
		defer func() { _ = workbook.Close() }()

		sheets := workbook.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}

		rows, err := workbook.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
		}
		return rows, nil
	case ".csv":
		reader := csv.NewReader(file)
		reader.TrimLeadingSpace = true
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("only .xlsx and .csv files can be imported")
	}
}

// headerIndex maps lower-cased header names to their column
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return index
}

func cell(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func optionalCell(row []string, index map[string]int, name string) *string {
	v := cell(row, index, name)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Server) importCustomers(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload"})
		return
	}
	defer file.Close()

	rows, err := readCustomerRows(file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is empty"})
		return
	}

	index := headerIndex(rows[0])
	if _, ok := index["name"]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name column"})
		return
	}

	result := ImportResult{Errors: []string{}}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows[1:] {
			line := i + 2
			req := CustomerRequest{
				Name:   cell(row, index, "name"),
				Email:  optionalCell(row, index, "email"),
				Phone:  optionalCell(row, index, "phone"),
				Status: strings.ToLower(cell(row, index, "status")),
				Gender: optionalCell(row, index, "gender"),
			}
			if req.Gender != nil {
				g := strings.ToLower(*req.Gender)
				req.Gender = &g
			}

			req.normalize()
			if err := s.validator.Struct(&req); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", line, err.Error()))
				continue
			}

			var customer models.Customer
			req.apply(&customer)
			if err := tx.Create(&customer).Error; err != nil {
				return fmt.Errorf("row %d: %w", line, err)
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to import customers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import customers"})
		return
	}

	s.logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Str("file", fileHeader.Filename).
		Msg("Customers imported")

	c.JSON(http.StatusOK, result)
}

func (s *Server) exportCustomers(c *gin.Context) {
	var customers []models.Customer
	if err := s.db.Order("created_at ASC, id ASC").Find(&customers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load customers for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	file, err := buildCustomerWorkbook(customers)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export customers"})
		return
	}
	defer func() { _ = file.Close() }()

	filename := "customers_" + time.Now().Format("20060102_150405") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := file.Write(c.Writer); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write workbook")
	}
}

func buildCustomerWorkbook(customers []models.Customer) (*excelize.File, error) {
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)

	for i, header := range exportColumns {
		name, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, name, header); err != nil {
			return nil, err
		}
	}

	for i, customer := range customers {
		values := []string{
			customer.ID,
			customer.Name,
			deref(customer.Email),
			deref(customer.Phone),
			customer.Status,
			deref(customer.Gender),
			customer.CreatedAt.UTC().Format(time.RFC3339),
		}
		for j, value := range values {
			name, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := file.SetCellValue(sheet, name, value); err != nil {
				return nil, err
			}
		}
	}

	return file, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
