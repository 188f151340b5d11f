package fakeoa

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const recordTimeLayout = "2006-01-02 15:04:05"

type inquiry struct {
	ID               int    `json:"id"`
	Area             string `json:"area,omitempty"`
	InquiryDate      string `json:"inquiry_date,omitempty"`
	InquirySource    string `json:"inquiry_source,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	ContactPerson    string `json:"contact_person"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	PackagingProduct string `json:"packaging_product"`
	MachineType      string `json:"machine_type"`
	CreatorID        string `json:"creator_id"`
	CreateTime       string `json:"create_time"`
	UpdateTime       string `json:"update_time"`
}

type expense struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	ExpenseType string  `json:"expense_type"`
	TargetYear  int     `json:"target_year"`
	Remark      string  `json:"remark,omitempty"`
	CreateTime  string  `json:"create_time"`
	UpdateTime  string  `json:"update_time"`
}

// records holds the id-keyed tables the handlers below create and edit.
type records struct {
	mu        sync.Mutex
	nextID    int
	inquiries []inquiry
	expenses  []expense
}

func newRecords() *records {
	return &records{
		nextID: 2,
		inquiries: []inquiry{
			{ID: 1, Area: "EU", InquirySource: "exhibition", CompanyName: "Acme Foods", ContactPerson: "Anna", PackagingProduct: "coffee beans", MachineType: "VFFS", CreatorID: DefaultUser.EmpID, InquiryDate: "2024-02-10"},
			{ID: 2, Area: "SEA", InquirySource: "website", CompanyName: "Blue Farm", ContactPerson: "Budi", PackagingProduct: "rice", MachineType: "premade pouch", CreatorID: DefaultAdmin.EmpID, InquiryDate: "2024-03-22"},
		},
		expenses: []expense{
			{ID: 1, Name: "Trade fair booth", Amount: 12000, ExpenseType: "full allocation", TargetYear: 2024},
			{ID: 2, Name: "Office rent", Amount: 36000, ExpenseType: "full allocation", TargetYear: 2024},
		},
	}
}

func (rs *records) id() int {
	rs.nextID++
	return rs.nextID
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil
}

func decodeBody(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func stamp() string {
	return time.Now().Format(recordTimeLayout)
}

// visibleTo reports whether the inquiry may be read or changed by the caller.
func (q inquiry) visibleTo(r *http.Request) bool {
	claims := claimsFrom(r)
	return claims.IsAdmin() || q.CreatorID == claims.EmpID
}

func (s *Server) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	page, size := pageArgs(r, "size")
	q := r.URL.Query()

	s.records.mu.Lock()
	var matched []inquiry
	for _, in := range s.records.inquiries {
		if !in.visibleTo(r) ||
			!strings.Contains(in.Area, q.Get("area")) ||
			!strings.Contains(in.CompanyName, q.Get("company_name")) ||
			!strings.Contains(in.ContactPerson, q.Get("contact_person")) ||
			!strings.Contains(in.MachineType, q.Get("machine_type")) ||
			!strings.Contains(in.InquirySource, q.Get("inquiry_source")) {
			continue
		}
		matched = append(matched, in)
	}
	s.records.mu.Unlock()

	writeLegacy(w, http.StatusOK, http.StatusOK, "inquiries", map[string]any{
		"list":  paginate(matched, page, size),
		"total": len(matched),
		"page":  page,
		"size":  size,
	})
}

func (s *Server) handleCreateInquiry(w http.ResponseWriter, r *http.Request) {
	var in inquiry
	if !decodeBody(r, &in) || in.ContactPerson == "" || in.PackagingProduct == "" || in.MachineType == "" {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "missing required field", nil)
		return
	}
	s.records.mu.Lock()
	in.ID = s.records.id()
	in.CreatorID = claimsFrom(r).EmpID
	in.CreateTime, in.UpdateTime = stamp(), stamp()
	s.records.inquiries = append(s.records.inquiries, in)
	s.records.mu.Unlock()
	writeLegacy(w, http.StatusOK, http.StatusOK, "inquiry created", in)
}

// findInquiry returns the index of the caller's inquiry or writes the error
// response. The records lock must be held.
func (s *Server) findInquiry(w http.ResponseWriter, r *http.Request) int {
	id, ok := pathID(r)
	if !ok {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "invalid inquiry id", nil)
		return -1
	}
	for i, in := range s.records.inquiries {
		if in.ID != id {
			continue
		}
		if !in.visibleTo(r) {
			writeLegacy(w, http.StatusForbidden, http.StatusForbidden, "no permission for this inquiry", nil)
			return -1
		}
		return i
	}
	writeLegacy(w, http.StatusNotFound, http.StatusNotFound, "inquiry not found", nil)
	return -1
}

func (s *Server) handleGetInquiry(w http.ResponseWriter, r *http.Request) {
	s.records.mu.Lock()
	defer s.records.mu.Unlock()
	if i := s.findInquiry(w, r); i >= 0 {
		writeLegacy(w, http.StatusOK, http.StatusOK, "inquiry", s.records.inquiries[i])
	}
}

func (s *Server) handleUpdateInquiry(w http.ResponseWriter, r *http.Request) {
	var in inquiry
	if !decodeBody(r, &in) {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "invalid body", nil)
		return
	}
	s.records.mu.Lock()
	defer s.records.mu.Unlock()
	i := s.findInquiry(w, r)
	if i < 0 {
		return
	}
	old := s.records.inquiries[i]
	in.ID, in.CreatorID, in.CreateTime, in.UpdateTime = old.ID, old.CreatorID, old.CreateTime, stamp()
	s.records.inquiries[i] = in
	writeLegacy(w, http.StatusOK, http.StatusOK, "inquiry updated", in)
}

func (s *Server) handleDeleteInquiry(w http.ResponseWriter, r *http.Request) {
	s.records.mu.Lock()
	defer s.records.mu.Unlock()
	i := s.findInquiry(w, r)
	if i < 0 {
		return
	}
	s.records.inquiries = append(s.records.inquiries[:i], s.records.inquiries[i+1:]...)
	writeLegacy(w, http.StatusOK, http.StatusOK, "inquiry deleted", nil)
}

func (s *Server) handleInquiryStats(w http.ResponseWriter, r *http.Request) {
	bySource, byArea := map[string]int{}, map[string]int{}
	total := 0

	s.records.mu.Lock()
	for _, in := range s.records.inquiries {
		if !in.visibleTo(r) {
			continue
		}
		total++
		if in.InquirySource != "" {
			bySource[in.InquirySource]++
		}
		if in.Area != "" {
			byArea[in.Area]++
		}
	}
	s.records.mu.Unlock()

	writeLegacy(w, http.StatusOK, http.StatusOK, "inquiry statistics", map[string]any{
		"total_inquiries":   total,
		"source_statistics": bySource,
		"area_statistics":   byArea,
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	page, size := pageArgs(r, "size")
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("target_year"))

	s.records.mu.Lock()
	var matched []expense
	for _, e := range s.records.expenses {
		if !strings.Contains(e.Name, q.Get("name")) || (year != 0 && e.TargetYear != year) {
			continue
		}
		matched = append(matched, e)
	}
	s.records.mu.Unlock()

	writeLegacy(w, http.StatusOK, http.StatusOK, "expenses", map[string]any{
		"list":  paginate(matched, page, size),
		"total": len(matched),
		"page":  page,
		"size":  size,
	})
}

func (s *Server) findExpense(w http.ResponseWriter, r *http.Request) int {
	id, ok := pathID(r)
	if !ok {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "invalid expense id", nil)
		return -1
	}
	for i, e := range s.records.expenses {
		if e.ID == id {
			return i
		}
	}
	writeLegacy(w, http.StatusNotFound, http.StatusNotFound, "expense not found", nil)
	return -1
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	s.records.mu.Lock()
	defer s.records.mu.Unlock()
	if i := s.findExpense(w, r); i >= 0 {
		writeLegacy(w, http.StatusOK, http.StatusOK, "expense", s.records.expenses[i])
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e expense
	if !decodeBody(r, &e) || e.Name == "" {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "name is required", nil)
		return
	}
	if e.ExpenseType == "" {
		e.ExpenseType = "full allocation"
	}
	s.records.mu.Lock()
	e.ID = s.records.id()
	e.CreateTime, e.UpdateTime = stamp(), stamp()
	s.records.expenses = append(s.records.expenses, e)
	s.records.mu.Unlock()
	writeLegacy(w, http.StatusOK, http.StatusOK, "expense created", e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e expense
	if !decodeBody(r, &e) {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "invalid body", nil)
		return
	}
	s.records.mu.Lock()
	defer s.records.mu.Unlock()
	i := s.findExpense(w, r)
	if i < 0 {
		return
	}
	old := s.records.expenses[i]
	e.ID, e.CreateTime, e.UpdateTime = old.ID, old.CreateTime, stamp()
	s.records.expenses[i] = e
	writeLegacy(w, http.StatusOK, http.StatusOK, "expense updated", e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.records.mu.Lock()
	defer s.records.mu.Unlock()
	i := s.findExpense(w, r)
	if i < 0 {
		return
	}
	s.records.expenses = append(s.records.expenses[:i], s.records.expenses[i+1:]...)
	writeLegacy(w, http.StatusOK, http.StatusOK, "expense deleted", nil)
}
