package fakeoa

import (
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/oa-client/token"
)

const maxUploadMemory = 32 << 20

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmpID    string `json:"emp_id"`
		TOTPCode string `json:"totp_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmpID == "" || req.TOTPCode == "" {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "emp_id and totp_code are required", nil)
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.EmpID]
	s.mu.Unlock()
	if !ok {
		writeLegacy(w, http.StatusNotFound, http.StatusNotFound, "employee not found", nil)
		return
	}
	if u.TOTPCode != req.TOTPCode {
		writeLegacy(w, http.StatusUnauthorized, http.StatusUnauthorized, "invalid TOTP code", nil)
		return
	}

	writeLegacy(w, http.StatusOK, http.StatusOK, "login succeeded", map[string]any{
		"token":     s.Issue(u.EmpID, DefaultTokenTTL),
		"emp_id":    u.EmpID,
		"name":      u.Name,
		"user_role": u.Role,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	fail, delay := s.failRefresh, s.refreshDelay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if fail {
		writeLegacy(w, http.StatusUnauthorized, http.StatusUnauthorized, "token expired, please log in again", nil)
		return
	}

	raw, ok := bearerToken(r)
	if !ok {
		writeLegacy(w, http.StatusUnauthorized, http.StatusUnauthorized, "missing access token", nil)
		return
	}
	claims, err := s.signer.Verify(raw, RefreshLeeway)
	if err != nil || s.revoked.IsRevoked(claims) {
		writeLegacy(w, http.StatusUnauthorized, http.StatusUnauthorized, "token expired, please log in again", nil)
		return
	}

	s.revoked.Revoke(claims, RefreshLeeway)
	writeLegacy(w, http.StatusOK, http.StatusOK, "token refreshed", map[string]any{
		"token": s.Issue(claims.EmpID, DefaultTokenTTL),
	})
}

func pageArgs(r *http.Request, sizeKey string) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get(sizeKey))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	return page, size
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func pageCount(total, size int) int {
	return (total + size - 1) / size
}

func redactMachine(m machine, admin bool) machine {
	if !admin {
		m.OriginalPrice = nil
	}
	return m
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	page, size := pageArgs(r, "per_page")
	admin := claimsFrom(r).IsAdmin()

	all := s.store.listMachines()
	items := paginate(all, page, size)
	for i := range items {
		items[i] = redactMachine(items[i], admin)
	}
	writeCurrent(w, http.StatusOK, true, "", map[string]any{
		"machines":     items,
		"total":        len(all),
		"pages":        pageCount(len(all), size),
		"current_page": page,
	})
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	m, ok := s.store.getMachine(r.PathValue("model"))
	if !ok {
		writeCurrent(w, http.StatusNotFound, false, "machine not found", nil)
		return
	}
	writeCurrent(w, http.StatusOK, true, "", redactMachine(m, claimsFrom(r).IsAdmin()))
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var m machine
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil || m.Model == "" {
		writeCurrent(w, http.StatusBadRequest, false, "model is required", nil)
		return
	}
	if _, exists := s.store.getMachine(m.Model); exists {
		writeCurrent(w, http.StatusConflict, false, "machine model already exists", nil)
		return
	}
	s.store.putMachine(m)
	writeCurrent(w, http.StatusCreated, true, "machine created", m)
}

func (s *Server) handleUpdateMachine(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	if _, ok := s.store.getMachine(model); !ok {
		writeCurrent(w, http.StatusNotFound, false, "machine not found", nil)
		return
	}
	var m machine
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeCurrent(w, http.StatusBadRequest, false, "invalid body", nil)
		return
	}
	m.Model = model
	s.store.putMachine(m)
	writeCurrent(w, http.StatusOK, true, "machine updated", m)
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	if !s.store.deleteMachine(r.PathValue("model")) {
		writeCurrent(w, http.StatusNotFound, false, "machine not found", nil)
		return
	}
	writeCurrent(w, http.StatusOK, true, "machine deleted", nil)
}

func (s *Server) handleListParts(w http.ResponseWriter, r *http.Request) {
	page, size := pageArgs(r, "per_page")
	admin := claimsFrom(r).IsAdmin()

	s.store.mu.RLock()
	all := append([]part(nil), s.store.parts...)
	s.store.mu.RUnlock()

	items := paginate(all, page, size)
	for i := range items {
		if !admin {
			items[i].OriginalPrice = nil
		}
	}
	writeCurrent(w, http.StatusOK, true, "", map[string]any{
		"parts":        items,
		"total":        len(all),
		"pages":        pageCount(len(all), size),
		"current_page": page,
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page, size := pageArgs(r, "size")
	q := r.URL.Query()

	s.store.mu.RLock()
	var matched []order
	for _, o := range s.store.orders {
		if !strings.Contains(o.CustomerName, q.Get("customer_name")) ||
			!strings.Contains(o.OrderNo, q.Get("order_no")) ||
			(q.Get("order_status") != "" && o.OrderStatus != q.Get("order_status")) {
			continue
		}
		matched = append(matched, o)
	}
	s.store.mu.RUnlock()

	writeLegacy(w, http.StatusOK, http.StatusOK, "orders", map[string]any{
		"list":  paginate(matched, page, size),
		"total": len(matched),
		"page":  page,
		"size":  size,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "invalid order id", nil)
		return
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	for _, o := range s.store.orders {
		if o.ID == id {
			writeLegacy(w, http.StatusOK, http.StatusOK, "order", o)
			return
		}
	}
	writeLegacy(w, http.StatusNotFound, http.StatusNotFound, "order not found", nil)
}

func (s *Server) handleOrderStatistics(w http.ResponseWriter, _ *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	var amount, gross, net float64
	for _, o := range s.store.orders {
		amount += o.ContractAmount
		gross += o.GrossProfit
		net += o.NetProfit
	}
	writeLegacy(w, http.StatusOK, http.StatusOK, "order statistics", map[string]any{
		"total_orders":       len(s.store.orders),
		"total_amount":       amount,
		"total_gross_profit": gross,
		"total_net_profit":   net,
	})
}

func (s *Server) handlePunchRecords(w http.ResponseWriter, r *http.Request) {
	page, size := pageArgs(r, "size")
	empID := r.URL.Query().Get("emp_id")

	s.store.mu.RLock()
	var matched []punchRecord
	for _, p := range s.store.punches {
		if strings.Contains(p.EmpID, empID) {
			matched = append(matched, p)
		}
	}
	s.store.mu.RUnlock()

	writeLegacy(w, http.StatusOK, http.StatusOK, "punch records", map[string]any{
		"list":  paginate(matched, page, size),
		"total": len(matched),
		"page":  page,
		"size":  size,
	})
}

func readFormFile(r *http.Request, field string) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, "", err
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	return b, hdr.Filename, err
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, name, err := readFormFile(r, "file")
	if err != nil {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "no file in request", nil)
		return
	}
	target := r.FormValue("target_path")
	dst := path.Join("temp_uploads", name)
	if target != "" {
		dst = path.Join(target, name)
	}

	s.store.mu.Lock()
	s.store.files[dst] = data
	s.store.mu.Unlock()

	writeLegacy(w, http.StatusOK, http.StatusOK, "file uploaded", map[string]any{
		"original_filename":    name,
		"filename":             name,
		"path":                 dst,
		"size":                 len(data),
		"target_path_provided": target != "",
	})
}

func (s *Server) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	data, _, err := readFormFile(r, "chunk")
	if err != nil {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "no chunk in request", nil)
		return
	}
	index, _ := strconv.Atoi(r.FormValue("chunk_index"))
	total, _ := strconv.Atoi(r.FormValue("total_chunks"))
	identifier := r.FormValue("file_identifier")
	name := r.FormValue("filename")
	if identifier == "" || total < 1 {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "file_identifier and total_chunks are required", nil)
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.chunks[identifier] == nil {
		s.store.chunks[identifier] = map[int][]byte{}
	}
	s.store.chunks[identifier][index] = data

	if index != total-1 {
		writeLegacy(w, http.StatusOK, http.StatusOK, "chunk uploaded", map[string]any{
			"chunk_index":     index,
			"file_identifier": identifier,
		})
		return
	}

	var assembled []byte
	for i := 0; i < total; i++ {
		assembled = append(assembled, s.store.chunks[identifier][i]...)
	}
	delete(s.store.chunks, identifier)

	dir := "temp_uploads"
	if target := r.FormValue("target_path"); target != "" {
		dir = target
	}
	dst := path.Join(dir, identifier+"_"+name)
	s.store.files[dst] = assembled

	writeLegacy(w, http.StatusOK, http.StatusOK, "file uploaded", map[string]any{
		"original_filename": name,
		"filename":          identifier + "_" + name,
		"path":              dst,
		"size":              len(assembled),
		"file_identifier":   identifier,
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourcePath string `json:"source_path"`
		TargetPath string `json:"target_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourcePath == "" || req.TargetPath == "" {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "source_path and target_path are required", nil)
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	data, ok := s.store.files[req.SourcePath]
	if !ok {
		writeLegacy(w, http.StatusNotFound, http.StatusNotFound, "source file not found", nil)
		return
	}
	delete(s.store.files, req.SourcePath)
	s.store.files[req.TargetPath] = data

	writeLegacy(w, http.StatusOK, http.StatusOK, "file moved", map[string]any{
		"source_path": req.SourcePath,
		"target_path": req.TargetPath,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePath string `json:"file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilePath == "" {
		writeLegacy(w, http.StatusBadRequest, http.StatusBadRequest, "file_path is required", nil)
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	data, ok := s.store.files[req.FilePath]
	if !ok {
		writeLegacy(w, http.StatusNotFound, http.StatusNotFound, "file not found", nil)
		return
	}
	delete(s.store.files, req.FilePath)
	ext := path.Ext(req.FilePath)
	moved := path.Join("deleted", strings.TrimSuffix(path.Base(req.FilePath), ext)+"_"+token.NowTimeFunc().Format("20060102150405")+ext)
	s.store.files[moved] = data

	writeLegacy(w, http.StatusOK, http.StatusOK, "file moved to deleted folder", map[string]any{
		"original_path": req.FilePath,
		"moved_to_path": moved,
	})
}
