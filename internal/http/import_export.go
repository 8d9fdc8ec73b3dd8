package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookbuddy/internal/exporters"
	"github.com/mrlokans/bookbuddy/internal/importers"
	"github.com/mrlokans/bookbuddy/internal/utils"
)

// maxImportSize bounds uploaded CSV files.
const maxImportSize = 10 << 20

type ImportExportController struct {
	importer *importers.Pipeline
	exporter *exporters.CSVExporter
}

func NewImportExportController(importer *importers.Pipeline, exporter *exporters.CSVExporter) *ImportExportController {
	return &ImportExportController{importer: importer, exporter: exporter}
}

// ExportCSV handles GET /api/export/csv
func (ic *ImportExportController) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	result, err := ic.exporter.Export(c.Request.Context(), &buf)
	if err != nil {
		respondInternalError(c, err, "export csv")
		return
	}

	filename := utils.BackupFilename("books", time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Books-Exported", fmt.Sprintf("%d", result.BooksExported))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportCSV handles POST /api/import/csv with a multipart "file" field.
func (ic *ImportExportController) ImportCSV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "open upload")
		return
	}
	defer file.Close()

	result, err := ic.importer.ImportCSV(c.Request.Context(), file)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}
