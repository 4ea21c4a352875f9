package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExport streams an XLSX of documents filtered by the optional
// owner_id, status and tag query parameters.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entity.DocumentFilter{
		OwnerID: strings.TrimSpace(q.Get("owner_id")),
		Status:  constants.DocumentStatus(strings.TrimSpace(q.Get("status"))),
		Tag:     strings.TrimSpace(q.Get("tag")),
	}

	xlsx, err := s.export.ExportDocumentsXLSX(r.Context(), filter)
	if err != nil {
		s.fail(w, "export.xlsx.failed", err)
		return
	}

	name := fmt.Sprintf("documents-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
