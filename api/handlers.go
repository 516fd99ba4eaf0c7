package api

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TFMV/mimic/config"
	"github.com/TFMV/mimic/metrics"
	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/schema"
	"github.com/TFMV/mimic/pkg/writers"
	"github.com/TFMV/mimic/report"
	"github.com/TFMV/mimic/utils"
)

// generateRequest carries generation and output settings for one request.
// Fields the caller omits keep the server's configured defaults.
type generateRequest struct {
	Generation config.GenerationConfig `json:"generation"`
	Output     config.OutputConfig     `json:"output"`
}

// estimateResponse previews the dimensions a generation request would
// produce.
type estimateResponse struct {
	Schema      string `json:"schema"`
	Columns     int    `json:"columns"`
	TableBytes  int64  `json:"table_bytes"`
	BytesPerRow int64  `json:"bytes_per_row"`
	Rows        int64  `json:"rows"`
}

// handleGenerate synthesizes a dataset, persists it, and responds with the
// generation report.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	req := generateRequest{Generation: s.cfg.Generation, Output: s.cfg.Output}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body: "+err.Error())
	}
	if err := req.Generation.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := req.Output.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	tags, err := schema.Parse(req.Generation.Schema)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	size, err := req.Generation.Bytes()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	start := time.Now()
	record, err := gen.Table(tags, req.Generation.Columns, size, req.Generation.Options())
	if err != nil {
		metrics.Default.GenerationFailed()
		return fiber.NewError(fiber.StatusInternalServerError, "generation failed: "+err.Error())
	}
	defer record.Release()
	genElapsed := time.Since(start)
	metrics.Default.GenerationSucceeded(record.NumRows(), schema.Repeat(tags, int(record.NumCols())), genElapsed)

	writeStart := time.Now()
	w, err := writers.DefaultFactory.Create(core.WriterConfig{
		Type:        req.Output.Format,
		Path:        req.Output.Path,
		Compression: req.Output.Compression,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if err := w.Write(c.Context(), record); err != nil {
		w.Close()
		return fiber.NewError(fiber.StatusInternalServerError, "write failed: "+err.Error())
	}
	if err := w.Close(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "close failed: "+err.Error())
	}
	metrics.Default.StageCompleted(metrics.StageWrite, time.Since(writeStart))

	var outputBytes int64
	if fi, statErr := os.Stat(req.Output.Path); statErr == nil {
		outputBytes = fi.Size()
		metrics.Default.BytesWritten(req.Output.Format, outputBytes)
	}

	rep := report.New(record, report.RunInfo{
		Schema:       req.Generation.Schema,
		Seed:         req.Generation.Seed,
		Workers:      req.Generation.Workers,
		OutputPath:   req.Output.Path,
		OutputFormat: req.Output.Format,
		OutputBytes:  outputBytes,
		Elapsed:      genElapsed,
	})
	return c.JSON(rep)
}

// handleEstimate reports the row count a byte budget buys without
// generating anything.
func (s *Server) handleEstimate(c *fiber.Ctx) error {
	schemaList := c.Query("schema", s.cfg.Generation.Schema)
	columns := c.QueryInt("columns", s.cfg.Generation.Columns)
	sizeSpec := c.Query("bytes", s.cfg.Generation.TableBytes)

	tags, err := schema.Parse(schemaList)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if columns < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "columns must be positive")
	}
	size, err := utils.ParseBytes(sizeSpec)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	repeated := schema.Repeat(tags, columns)
	rows, err := gen.RowCount(repeated, size)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var rowBytes int64
	for _, tag := range repeated {
		b, err := gen.AvgElementBytes(tag)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		rowBytes += b
	}

	return c.JSON(estimateResponse{
		Schema:      schemaList,
		Columns:     columns,
		TableBytes:  size,
		BytesPerRow: rowBytes,
		Rows:        int64(rows),
	})
}
