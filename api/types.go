package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
)

// Decimal is a money amount. The backend encodes DECIMAL columns as either
// JSON numbers or strings depending on the endpoint.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return oaerrors.Wrapf(oaerrors.ErrInvalidInput, "decimal %q", s)
		}
		*d = Decimal(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', 2, 64)
}

// PageParams is the page/size pair used by the list endpoints.
type PageParams struct {
	Page int `validate:"gte=1"`
	Size int `validate:"gte=1,lte=100"`
}

// DefaultPage is the first page at the backend's default size.
var DefaultPage = PageParams{Page: 1, Size: 10}

// Page is the legacy list shape: {list, total, page, size}.
type Page[T any] struct {
	List  []T `json:"list"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

type Machine struct {
	Model           string         `json:"model" validate:"required,max=255"`
	OriginalModel   string         `json:"original_model,omitempty"`
	PackingSpeed    string         `json:"packing_speed,omitempty"`
	GeneralPower    string         `json:"general_power,omitempty"`
	PowerSupply     string         `json:"power_supply,omitempty"`
	AirSource       string         `json:"air_source,omitempty"`
	MachineWeight   string         `json:"machine_weight,omitempty"`
	Dimensions      string         `json:"dimensions,omitempty"`
	PackageMaterial string         `json:"package_material,omitempty"`
	Image           string         `json:"image,omitempty"`
	AddedCount      int            `json:"added_count,omitempty" validate:"gte=0"`
	OriginalPrice   *Decimal       `json:"original_price,omitempty"`
	ShowPrice       *Decimal       `json:"show_price,omitempty"`
	CustomAttrs     map[string]any `json:"custom_attrs,omitempty"`
}

type MachineList struct {
	Machines    []Machine `json:"machines"`
	Total       int       `json:"total"`
	Pages       int       `json:"pages"`
	CurrentPage int       `json:"current_page"`
}

type Part struct {
	PartTypeID    int      `json:"part_type_id"`
	PartModel     string   `json:"part_model"`
	OriginalPrice *Decimal `json:"original_price,omitempty"`
	ShowPrice     *Decimal `json:"show_price,omitempty"`
	Image         string   `json:"image,omitempty"`
}

type PartList struct {
	Parts       []Part `json:"parts"`
	Total       int    `json:"total"`
	Pages       int    `json:"pages"`
	CurrentPage int    `json:"current_page"`
}

type Order struct {
	ID             int     `json:"id"`
	IsNew          int     `json:"is_new"`
	Area           string  `json:"area"`
	CustomerName   string  `json:"customer_name"`
	CustomerType   string  `json:"customer_type"`
	OrderTime      string  `json:"order_time"`
	ShipTime       string  `json:"ship_time"`
	ShipCountry    string  `json:"ship_country"`
	ContractNo     string  `json:"contract_no"`
	OrderNo        string  `json:"order_no"`
	MachineName    string  `json:"machine_name"`
	MachineModel   string  `json:"machine_model"`
	MachineCount   int     `json:"machine_count"`
	ContractAmount Decimal `json:"contract_amount"`
	GrossProfit    Decimal `json:"gross_profit"`
	NetProfit      Decimal `json:"net_profit"`
	PayType        string  `json:"pay_type"`
	OrderDept      string  `json:"order_dept"`
	OrderStatus    string  `json:"order_status"`
}

// OrderFilter narrows Orders.List. Dates are YYYY-MM-DD.
type OrderFilter struct {
	PageParams
	CustomerName string
	OrderNo      string
	MachineName  string
	Area         string
	OrderStatus  string
	StartDate    string `validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `validate:"omitempty,datetime=2006-01-02"`
}

type OrderStatistics struct {
	TotalOrders      int     `json:"total_orders"`
	TotalAmount      Decimal `json:"total_amount"`
	TotalGrossProfit Decimal `json:"total_gross_profit"`
	TotalNetProfit   Decimal `json:"total_net_profit"`
}

type PunchRecord struct {
	ID            int     `json:"id"`
	EmpID         string  `json:"emp_id"`
	Name          string  `json:"name"`
	PunchType     string  `json:"punch_type"`
	PunchTime     string  `json:"punch_time"`
	InnerIP       string  `json:"inner_ip"`
	PhoneMAC      string  `json:"phone_mac"`
	LastLoginTime *string `json:"last_login_time"`
	LoginDevice   string  `json:"login_device"`
}

// PunchFilter narrows Punch.Records. Dates are YYYY-MM-DD.
type PunchFilter struct {
	PageParams
	Name      string
	EmpID     string
	PunchType string
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`
}

type LoginResult struct {
	Token    string `json:"token"`
	EmpID    string `json:"emp_id"`
	Name     string `json:"name"`
	UserRole string `json:"user_role"`
}

type UploadResult struct {
	OriginalFilename   string `json:"original_filename"`
	Filename           string `json:"filename"`
	Path               string `json:"path"`
	Size               int64  `json:"size"`
	FileIdentifier     string `json:"file_identifier,omitempty"`
	TargetPathProvided bool   `json:"target_path_provided,omitempty"`
}

type MoveResult struct {
	SourcePath string `json:"source_path"`
	TargetPath string `json:"target_path"`
}

type DeleteResult struct {
	OriginalPath string `json:"original_path"`
	MovedToPath  string `json:"moved_to_path"`
}

type Inquiry struct {
	ID               int    `json:"id,omitempty"`
	Area             string `json:"area,omitempty"`
	InquiryDate      string `json:"inquiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	InquirySource    string `json:"inquiry_source,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	ContactPerson    string `json:"contact_person" validate:"required,max=100"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty" validate:"omitempty,email"`
	PackagingProduct string `json:"packaging_product" validate:"required,max=200"`
	MachineType      string `json:"machine_type" validate:"required,max=200"`
	CreatorID        string `json:"creator_id,omitempty"`
	CreateTime       string `json:"create_time,omitempty"`
	UpdateTime       string `json:"update_time,omitempty"`
}

// InquiryFilter narrows Inquiries.List. Employees only ever see the
// inquiries they created.
type InquiryFilter struct {
	PageParams
	Area             string
	ContactPerson    string
	CompanyName      string
	PackagingProduct string
	MachineType      string
	InquirySource    string
	StartDate        string `validate:"omitempty,datetime=2006-01-02"`
	EndDate          string `validate:"omitempty,datetime=2006-01-02"`
}

type InquiryStatistics struct {
	TotalInquiries int            `json:"total_inquiries"`
	BySource       map[string]int `json:"source_statistics"`
	ByArea         map[string]int `json:"area_statistics"`
}

type Expense struct {
	ID          int     `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required,max=200"`
	Amount      Decimal `json:"amount" validate:"gte=0"`
	ExpenseType string  `json:"expense_type,omitempty"`
	TargetYear  int     `json:"target_year" validate:"required,gte=2000,lte=2100"`
	Remark      string  `json:"remark,omitempty"`
	CreateTime  string  `json:"create_time,omitempty"`
	UpdateTime  string  `json:"update_time,omitempty"`
}

// ExpenseFilter narrows Expenses.List. Dates are YYYY-MM-DD.
type ExpenseFilter struct {
	PageParams
	Name        string
	ExpenseType string
	TargetYear  int    `validate:"omitempty,gte=2000,lte=2100"`
	StartDate   string `validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `validate:"omitempty,datetime=2006-01-02"`
}
