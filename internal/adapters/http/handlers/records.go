package handlers

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-filter/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-filter/internal/adapters/tabular"
	"github.com/jsamuelsen/quote-filter/internal/app"
)

const csvContentType = "text/csv; charset=utf-8"

// RecordsHandler serves the normalization and cleaning endpoints.
type RecordsHandler struct {
	cleaner   *app.Cleaner
	delimiter rune
}

// NewRecordsHandler creates a records handler. delimiter is the default field
// delimiter of uploaded tables.
func NewRecordsHandler(cleaner *app.Cleaner, delimiter rune) *RecordsHandler {
	return &RecordsHandler{cleaner: cleaner, delimiter: delimiter}
}

// Normalize handles POST /api/v1/normalize.
func (h *RecordsHandler) Normalize(c *gin.Context) {
	var req dto.NormalizeRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NormalizeResponse{
		Text: h.cleaner.NormalizeText(c.Request.Context(), *req.Text),
	})
}

// Clean handles POST /api/v1/records/clean. The body is a delimited table
// with a header row; the response is the cleaned table with the run summary
// in the X-Records-* headers. The output is buffered so that a malformed
// row late in the input still yields a JSON error instead of a truncated table.
func (h *RecordsHandler) Clean(c *gin.Context) {
	if !acceptsTable(c.ContentType()) {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest,
			"unsupported content type "+strconv.Quote(c.ContentType())+", expected text/csv")
		return
	}

	var query dto.CleanQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleError(c, err)
		return
	}

	delimiter := h.delimiter
	if query.Delimiter != "" {
		delimiter = []rune(query.Delimiter)[0]
	}

	src, err := tabular.NewReader(c.Request.Body, delimiter)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	var opts []tabular.WriterOption
	if query.CRLF {
		opts = append(opts, tabular.WithCRLF())
	}

	var out bytes.Buffer
	summary, err := h.cleaner.Run(c.Request.Context(), src, tabular.NewWriter(&out, delimiter, opts...))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header(dto.HeaderRunID, summary.RunID)
	c.Header(dto.HeaderRecordsTotal, strconv.Itoa(summary.Total))
	c.Header(dto.HeaderRecordsEmitted, strconv.Itoa(summary.Emitted))
	c.Header(dto.HeaderRecordsDropped, strconv.Itoa(summary.DroppedTotal()))
	c.Data(http.StatusOK, csvContentType, out.Bytes())
}

// RegisterRoutes registers the records routes on rg.
func (h *RecordsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/normalize", h.Normalize)
	rg.POST("/records/clean", h.Clean)
}

// acceptsTable allows csv, plain text and a missing content type.
func acceptsTable(contentType string) bool {
	if contentType == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "text/csv" || mediaType == "text/plain" || strings.HasSuffix(mediaType, "/csv")
}
