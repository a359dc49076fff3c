package rest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/service"
	"maktaba-backend/internal/utils"
)

const exportPageSize = 100

// CirculationHandler exposes the loan lifecycle endpoints.
type CirculationHandler struct {
	circulation service.CirculationService
	reports     service.ReportsService
	loanDays    int
}

func NewCirculationHandler(circulation service.CirculationService, reports service.ReportsService, loanDays int) *CirculationHandler {
	if loanDays <= 0 {
		loanDays = 15
	}
	return &CirculationHandler{circulation: circulation, reports: reports, loanDays: loanDays}
}

type issueRequest struct {
	UserID    string `json:"user_id"`
	BookID    string `json:"book_id"`
	IssueDate string `json:"issue_date,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	Notes     string `json:"notes,omitempty"`
	SendEmail bool   `json:"send_email,omitempty"`
}

type returnRequest struct {
	ReturnDate    string `json:"return_date,omitempty"`
	BookCondition string `json:"book_condition"`
	Notes         string `json:"notes,omitempty"`
}

type updateRequest struct {
	DueDate    *string  `json:"due_date,omitempty"`
	FineAmount *float64 `json:"fine_amount,omitempty"`
	FinePaid   *bool    `json:"fine_paid,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

func (h *CirculationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validation("invalid request body"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, domain.Validation("user_id must be a valid UUID"))
		return
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		writeError(w, domain.Validation("book_id must be a valid UUID"))
		return
	}

	issueDate := utils.DateOnly(time.Now())
	if req.IssueDate != "" {
		if issueDate, err = parseDate(req.IssueDate); err != nil {
			writeError(w, err)
			return
		}
	}
	dueDate := issueDate.AddDate(0, 0, h.loanDays)
	if req.DueDate != "" {
		if dueDate, err = parseDate(req.DueDate); err != nil {
			writeError(w, err)
			return
		}
	}

	view, err := h.circulation.Issue(r.Context(), actor, domain.IssueParams{
		UserID:    userID,
		BookID:    bookID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Notes:     req.Notes,
		SendEmail: req.SendEmail,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *CirculationHandler) Return(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	recordID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validation("invalid request body"))
		return
	}
	returnDate := utils.DateOnly(time.Now())
	if req.ReturnDate != "" {
		if returnDate, err = parseDate(req.ReturnDate); err != nil {
			writeError(w, err)
			return
		}
	}

	view, err := h.circulation.Return(r.Context(), actor, recordID, domain.ReturnParams{
		ReturnDate:    returnDate,
		BookCondition: domain.BookCondition(req.BookCondition),
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CirculationHandler) Renew(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	recordID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.circulation.Renew(r.Context(), actor, recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CirculationHandler) CollectFines(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.circulation.CollectFines(r.Context(), actor, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CirculationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	recordID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.circulation.Get(r.Context(), actor, recordID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CirculationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.circulation.List(r.Context(), actor, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CirculationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	recordID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Validation("invalid request body"))
		return
	}
	params := domain.LoanUpdateParams{
		FineAmount: req.FineAmount,
		FinePaid:   req.FinePaid,
		Notes:      req.Notes,
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			writeError(w, err)
			return
		}
		params.DueDate = &due
	}

	view, err := h.circulation.Update(r.Context(), actor, recordID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CirculationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	recordID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.circulation.Delete(r.Context(), actor, recordID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "circulation record deleted"})
}

func (h *CirculationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	stats, err := h.reports.Stats(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export streams the same filtered record set as the list endpoint as CSV.
func (h *CirculationHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter.Page = 1
	filter.PageSize = exportPageSize
	var views []domain.LoanView
	for {
		page, err := h.circulation.List(r.Context(), actor, filter)
		if err != nil {
			writeError(w, err)
			return
		}
		views = append(views, page.Items...)
		if page.Page >= page.TotalPages {
			break
		}
		filter.Page++
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="circulation_%s.csv"`, time.Now().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"holder", "title", "category", "shelf_location",
		"issue_date", "due_date", "return_date",
		"status", "days_left", "condition",
		"fine_amount", "fine_paid", "notes",
	})
	for i := range views {
		_ = cw.Write(exportRow(&views[i]))
	}
	cw.Flush()
}

func exportRow(v *domain.LoanView) []string {
	returnDate := ""
	if v.ReturnDate != nil {
		returnDate = v.ReturnDate.Format("2006-01-02")
	}
	fine := ""
	if v.FineAmount != nil {
		fine = strconv.FormatFloat(*v.FineAmount, 'f', 3, 64)
	}
	return []string{
		v.HolderName,
		v.BookTitle,
		v.Category,
		v.ShelfLocation,
		v.IssueDate.Format("2006-01-02"),
		v.DueDate.Format("2006-01-02"),
		returnDate,
		string(v.Status),
		strconv.Itoa(v.DaysLeft),
		string(v.BookCondition),
		fine,
		strconv.FormatBool(v.FinePaid),
		v.Notes,
	}
}

func filterFromQuery(r *http.Request) (domain.LoanFilter, error) {
	q := r.URL.Query()
	f := domain.LoanFilter{
		Search:    q.Get("search"),
		Status:    domain.LoanStatus(q.Get("status")),
		UserType:  q.Get("user_type"),
		DueDate:   domain.DueDateFilter(q.Get("due_date")),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, domain.Validation("user_id must be a valid UUID")
		}
		f.UserID = &id
	}
	if raw := q.Get("page"); raw != "" {
		f.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("page_size"); raw != "" {
		f.PageSize, _ = strconv.Atoi(raw)
	}
	return f, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, domain.Validation("%s must be a valid UUID", name)
	}
	return id, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, domain.Validation("dates must use the YYYY-MM-DD format")
	}
	return t, nil
}
