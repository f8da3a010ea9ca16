package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
	"github.com/vanshika/fintrace/linkgraph/internal/service"
)

const exportFilename = "graph-export.json"

// APIHandlers exposes HTTP handlers for the analytics API.
type APIHandlers struct {
	logger  *zap.Logger
	service *service.AnalyticsService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *zap.Logger, svc *service.AnalyticsService) *APIHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandlers{
		logger:  logger.Named("api"),
		service: svc,
	}
}

func (h *APIHandlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Refresh(r.Context())
	if err != nil {
		h.logger.Error("refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to reload data source")
		return
	}
	respondJSON(w, http.StatusOK, refreshResponse{
		Status:   "ok",
		Snapshot: info,
	})
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.service.ListUsers(service.ListUsersParams{
		Page:     parseInt(query.Get("page"), 1),
		PageSize: parseInt(query.Get("pageSize"), 0),
		Search:   query.Get("search"),
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to list users")
		return
	}

	items := make([]userResponse, 0, len(page.Items))
	for _, u := range page.Items {
		items = append(items, newUserResponse(u))
	}
	respondJSON(w, http.StatusOK, listUsersResponse{
		Items:      items,
		Pagination: newPaginationResponse(page.Pagination),
	})
}

func (h *APIHandlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := service.ListTransactionsParams{
		Page:     parseInt(query.Get("page"), 1),
		PageSize: parseInt(query.Get("pageSize"), 0),
		Search:   query.Get("search"),
	}

	if raw := query.Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid userId")
			return
		}
		params.UserID = &id
	}
	if raw := query.Get("status"); raw != "" {
		params.Status = domain.ParseTransactionStatus(raw)
	}
	var err error
	if params.MinAmount, err = parseOptionalFloat(query.Get("minAmount")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid minAmount")
		return
	}
	if params.MaxAmount, err = parseOptionalFloat(query.Get("maxAmount")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid maxAmount")
		return
	}

	page, err := h.service.ListTransactions(params)
	if err != nil {
		h.writeServiceError(w, err, "failed to list transactions")
		return
	}

	items := make([]transactionResponse, 0, len(page.Items))
	for _, tx := range page.Items {
		items = append(items, newTransactionResponse(tx))
	}
	respondJSON(w, http.StatusOK, listTransactionsResponse{
		Items:      items,
		Pagination: newPaginationResponse(page.Pagination),
	})
}

func (h *APIHandlers) listHighValueTransactions(w http.ResponseWriter, r *http.Request) {
	minAmount := service.DefaultHighValueAmount
	if raw := r.URL.Query().Get("minAmount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "invalid minAmount")
			return
		}
		if v > 0 {
			minAmount = v
		}
	}

	txs, err := h.service.HighValueTransactions(minAmount)
	if err != nil {
		h.writeServiceError(w, err, "failed to list high-value transactions")
		return
	}

	items := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		items = append(items, newTransactionResponse(tx))
	}
	respondJSON(w, http.StatusOK, highValueResponse{MinAmount: minAmount, Items: items})
}

func (h *APIHandlers) handleGraph(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilterQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Graph(filter)
	if err != nil {
		h.writeServiceError(w, err, "failed to build graph")
		return
	}
	if notModified(w, r, graphETag(result.Snapshot, r.URL.RawQuery)) {
		return
	}
	respondJSON(w, http.StatusOK, graphResponse{
		Nodes:    result.Graph.Nodes,
		Edges:    result.Graph.Edges,
		Snapshot: result.Snapshot,
	})
}

func (h *APIHandlers) handleGraphFilter(w http.ResponseWriter, r *http.Request) {
	var req graphFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Graph(filter)
	if err != nil {
		h.writeServiceError(w, err, "failed to build graph")
		return
	}
	respondJSON(w, http.StatusOK, graphResponse{
		Nodes:    result.Graph.Nodes,
		Edges:    result.Graph.Edges,
		Snapshot: result.Snapshot,
	})
}

func (h *APIHandlers) handleGraphExport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilterQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	export, err := h.service.Export(filter)
	if err != nil {
		h.writeServiceError(w, err, "failed to export graph")
		return
	}
	if notModified(w, r, graphETag(export.Snapshot, r.URL.RawQuery)) {
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	respondJSON(w, http.StatusOK, export)
}

func (h *APIHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilterQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.Stats(filter)
	if err != nil {
		h.writeServiceError(w, err, "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *APIHandlers) handleTransactionAnalytics(w http.ResponseWriter, r *http.Request) {
	window, err := service.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analytics, err := h.service.TransactionAnalytics(window)
	if err != nil {
		h.writeServiceError(w, err, "failed to compute transaction analytics")
		return
	}
	respondJSON(w, http.StatusOK, transactionAnalyticsResponse{
		Window:               window,
		TransactionAnalytics: analytics,
	})
}

func (h *APIHandlers) handleConnections(w http.ResponseWriter, r *http.Request) {
	var ref domain.EntityRef
	switch entityType := domain.NodeType(chi.URLParam(r, "entityType")); entityType {
	case domain.NodeTypeUser, domain.NodeTypeTransaction:
		ref.Type = entityType
	default:
		writeError(w, http.StatusNotFound, "route not found")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ref.ID = id

	connections, err := h.service.Connections(ref)
	if err != nil {
		h.writeServiceError(w, err, "failed to look up connections")
		return
	}

	items := make([]connectionResponse, 0, len(connections))
	for _, c := range connections {
		items = append(items, newConnectionResponse(c))
	}
	respondJSON(w, http.StatusOK, connectionsResponse{
		Target:      ref.NodeID(),
		Count:       len(items),
		Connections: items,
	})
}

func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoSnapshot):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// parseFilterQuery reads a graph filter from query parameters. An absent
// types parameter keeps every relationship kind; a present but empty one
// keeps none.
func parseFilterQuery(r *http.Request) (domain.GraphFilter, error) {
	query := r.URL.Query()
	filter := service.DefaultFilter()

	var err error
	if filter.ShowUsers, err = parseOptionalBool(query.Get("showUsers"), filter.ShowUsers); err != nil {
		return domain.GraphFilter{}, errors.New("invalid showUsers")
	}
	if filter.ShowTransactions, err = parseOptionalBool(query.Get("showTransactions"), filter.ShowTransactions); err != nil {
		return domain.GraphFilter{}, errors.New("invalid showTransactions")
	}
	if values, ok := query["types"]; ok {
		var names []string
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					names = append(names, part)
				}
			}
		}
		kinds, err := parseKinds(names)
		if err != nil {
			return domain.GraphFilter{}, err
		}
		filter.RelationshipKinds = kinds
	}
	if filter.MinAmount, err = parseOptionalFloat(query.Get("minAmount")); err != nil {
		return domain.GraphFilter{}, errors.New("invalid minAmount")
	}
	if filter.MaxAmount, err = parseOptionalFloat(query.Get("maxAmount")); err != nil {
		return domain.GraphFilter{}, errors.New("invalid maxAmount")
	}
	if filter.DateRange, err = parseDateRange(query.Get("start"), query.Get("end")); err != nil {
		return domain.GraphFilter{}, err
	}
	return filter, nil
}

func parseKinds(names []string) ([]domain.RelationshipKind, error) {
	kinds := make([]domain.RelationshipKind, 0, len(names))
	for _, name := range names {
		kind, err := service.ParseRelationshipKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// parseDateRange returns nil when both bounds are empty.
func parseDateRange(start, end string) (*domain.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	var dr domain.DateRange
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, errors.New("invalid start timestamp")
		}
		dr.Start = t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return nil, errors.New("invalid end timestamp")
		}
		dr.End = t
	}
	return &dr, nil
}

func parseOptionalFloat(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalBool(value string, fallback bool) (bool, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

// graphETag ties a cached response to both the installed data and the filter
// that shaped it.
func graphETag(info service.SnapshotInfo, rawQuery string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(rawQuery))
	fp := info.Fingerprint
	if len(fp) > 16 {
		fp = fp[:16]
	}
	return fmt.Sprintf(`"%s-%x"`, fp, h.Sum64())
}

// notModified sets the ETag header and answers 304 when the client already
// holds it.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if c := strings.TrimSpace(candidate); c == etag || c == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
