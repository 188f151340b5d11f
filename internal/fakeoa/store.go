package fakeoa

import (
	"sort"
	"sync"

	"github.com/jrsteele09/oa-client/internal/utils"
)

type machine struct {
	Model         string         `json:"model"`
	OriginalModel string         `json:"original_model,omitempty"`
	PackingSpeed  string         `json:"packing_speed,omitempty"`
	Image         string         `json:"image,omitempty"`
	AddedCount    int            `json:"added_count"`
	OriginalPrice *float64       `json:"original_price,omitempty"`
	ShowPrice     string         `json:"show_price,omitempty"`
	CustomAttrs   map[string]any `json:"custom_attrs,omitempty"`
}

type part struct {
	PartTypeID    int      `json:"part_type_id"`
	PartModel     string   `json:"part_model"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	ShowPrice     string   `json:"show_price,omitempty"`
}

type order struct {
	ID             int     `json:"id"`
	OrderNo        string  `json:"order_no"`
	CustomerName   string  `json:"customer_name"`
	MachineName    string  `json:"machine_name"`
	Area           string  `json:"area"`
	OrderTime      string  `json:"order_time"`
	ContractAmount float64 `json:"contract_amount"`
	GrossProfit    float64 `json:"gross_profit"`
	NetProfit      float64 `json:"net_profit"`
	OrderStatus    string  `json:"order_status"`
}

type punchRecord struct {
	ID        int    `json:"id"`
	EmpID     string `json:"emp_id"`
	Name      string `json:"name"`
	PunchType string `json:"punch_type"`
	PunchTime string `json:"punch_time"`
}

// store is the backend's in-memory data, guarded by its own lock.
type store struct {
	mu       sync.RWMutex
	machines map[string]machine
	parts    []part
	orders   []order
	punches  []punchRecord
	files    map[string][]byte
	chunks   map[string]map[int][]byte
}

func newStore() *store {
	return &store{
		machines: map[string]machine{
			"SW-420": {Model: "SW-420", OriginalModel: "VFFS-420", PackingSpeed: "60 bags/min", OriginalPrice: utils.Ptr(52000.0), ShowPrice: "68000.00"},
			"SW-520": {Model: "SW-520", OriginalModel: "VFFS-520", PackingSpeed: "45 bags/min", OriginalPrice: utils.Ptr(61000.0), ShowPrice: "79000.00"},
		},
		parts: []part{
			{PartTypeID: 1, PartModel: "Film roller", OriginalPrice: utils.Ptr(300.0), ShowPrice: "450.00"},
			{PartTypeID: 2, PartModel: "Sealing jaw", OriginalPrice: utils.Ptr(1200.0), ShowPrice: "1800.00"},
		},
		orders: []order{
			{ID: 1, OrderNo: "SO-2024-001", CustomerName: "Acme Foods", MachineName: "SW-420", Area: "EU", OrderTime: "2024-03-01", ContractAmount: 68000, GrossProfit: 16000, NetProfit: 9000, OrderStatus: "shipped"},
			{ID: 2, OrderNo: "SO-2024-002", CustomerName: "Blue Farm", MachineName: "SW-520", Area: "SEA", OrderTime: "2024-04-12", ContractAmount: 79000, GrossProfit: 18000, NetProfit: 10500, OrderStatus: "unshipped"},
		},
		punches: []punchRecord{
			{ID: 1, EmpID: DefaultUser.EmpID, Name: DefaultUser.Name, PunchType: "in", PunchTime: "2024-05-06 08:58:12"},
			{ID: 2, EmpID: DefaultUser.EmpID, Name: DefaultUser.Name, PunchType: "out", PunchTime: "2024-05-06 18:03:40"},
		},
		files:  map[string][]byte{},
		chunks: map[string]map[int][]byte{},
	}
}

func (s *store) listMachines() []machine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]machine, 0, len(s.machines))
	for _, m := range s.machines {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

func (s *store) getMachine(model string) (machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.machines[model]
	return m, ok
}

func (s *store) putMachine(m machine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machines[m.Model] = m
}

func (s *store) deleteMachine(model string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.machines[model]; !ok {
		return false
	}
	delete(s.machines, model)
	return true
}

// File returns the content stored at path by an upload.
func (s *Server) File(path string) ([]byte, bool) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	b, ok := s.store.files[path]
	return b, ok
}
