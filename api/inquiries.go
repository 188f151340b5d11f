package api

import (
	"context"
	"strconv"

	"github.com/jrsteele09/oa-client/request"
)

const (
	inquiriesPath    = "/api/inquiries"
	inquiryStatsPath = "/api/inquiries/stats"
	expensesPath     = "/api/expenses"
)

// Inquiries manages customer inquiries. The backend scopes every call to the
// caller's own inquiries unless the caller is an admin.
type Inquiries struct {
	client *request.Client
}

func (i *Inquiries) List(ctx context.Context, filter InquiryFilter) (*Page[Inquiry], error) {
	filter.PageParams = filter.PageParams.orDefault()
	if err := validateStruct(filter); err != nil {
		return nil, err
	}

	q := filter.values("size")
	setIf(q, "area", filter.Area)
	setIf(q, "contact_person", filter.ContactPerson)
	setIf(q, "company_name", filter.CompanyName)
	setIf(q, "packaging_product", filter.PackagingProduct)
	setIf(q, "machine_type", filter.MachineType)
	setIf(q, "inquiry_source", filter.InquirySource)
	setIf(q, "start_date", filter.StartDate)
	setIf(q, "end_date", filter.EndDate)

	var out Page[Inquiry]
	if err := i.client.Get(ctx, inquiriesPath, &out, request.WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *Inquiries) Get(ctx context.Context, id int) (*Inquiry, error) {
	var out Inquiry
	if err := i.client.Get(ctx, inquiriesPath+"/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *Inquiries) Create(ctx context.Context, inquiry Inquiry) (*Inquiry, error) {
	if err := validateStruct(inquiry); err != nil {
		return nil, err
	}
	var out Inquiry
	if err := i.client.Post(ctx, inquiriesPath, inquiry, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *Inquiries) Update(ctx context.Context, inquiry Inquiry) (*Inquiry, error) {
	if err := validateStruct(inquiry); err != nil {
		return nil, err
	}
	var out Inquiry
	if err := i.client.Put(ctx, inquiriesPath+"/"+strconv.Itoa(inquiry.ID), inquiry, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *Inquiries) Delete(ctx context.Context, id int) error {
	return i.client.Delete(ctx, inquiriesPath+"/"+strconv.Itoa(id), nil)
}

func (i *Inquiries) Statistics(ctx context.Context) (*InquiryStatistics, error) {
	var out InquiryStatistics
	if err := i.client.Get(ctx, inquiryStatsPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Expenses manages the yearly overhead entries. Admin only.
type Expenses struct {
	client *request.Client
}

func (e *Expenses) List(ctx context.Context, filter ExpenseFilter) (*Page[Expense], error) {
	filter.PageParams = filter.PageParams.orDefault()
	if err := validateStruct(filter); err != nil {
		return nil, err
	}

	q := filter.values("size")
	setIf(q, "name", filter.Name)
	if filter.TargetYear != 0 {
		q.Set("target_year", strconv.Itoa(filter.TargetYear))
	}
	setIf(q, "expense_type", filter.ExpenseType)
	setIf(q, "start_date", filter.StartDate)
	setIf(q, "end_date", filter.EndDate)

	var out Page[Expense]
	if err := e.client.Get(ctx, expensesPath, &out, request.WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Expenses) Get(ctx context.Context, id int) (*Expense, error) {
	var out Expense
	if err := e.client.Get(ctx, expensesPath+"/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Expenses) Create(ctx context.Context, expense Expense) (*Expense, error) {
	if err := validateStruct(expense); err != nil {
		return nil, err
	}
	var out Expense
	if err := e.client.Post(ctx, expensesPath, expense, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Expenses) Update(ctx context.Context, expense Expense) (*Expense, error) {
	if err := validateStruct(expense); err != nil {
		return nil, err
	}
	var out Expense
	if err := e.client.Put(ctx, expensesPath+"/"+strconv.Itoa(expense.ID), expense, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Expenses) Delete(ctx context.Context, id int) error {
	return e.client.Delete(ctx, expensesPath+"/"+strconv.Itoa(id), nil)
}
