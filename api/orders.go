package api

import (
	"context"
	"strconv"

	"github.com/jrsteele09/oa-client/request"
)

const (
	ordersPath          = "/api/orders"
	orderStatisticsPath = "/api/orders/statistics"
	punchRecordsPath    = "/api/punch-records"
)

type Orders struct {
	client *request.Client
}

func (o *Orders) List(ctx context.Context, filter OrderFilter) (*Page[Order], error) {
	filter.PageParams = filter.PageParams.orDefault()
	if err := validateStruct(filter); err != nil {
		return nil, err
	}

	q := filter.values("size")
	setIf(q, "customer_name", filter.CustomerName)
	setIf(q, "order_no", filter.OrderNo)
	setIf(q, "machine_name", filter.MachineName)
	setIf(q, "area", filter.Area)
	setIf(q, "order_status", filter.OrderStatus)
	setIf(q, "start_date", filter.StartDate)
	setIf(q, "end_date", filter.EndDate)

	var out Page[Order]
	if err := o.client.Get(ctx, ordersPath, &out, request.WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *Orders) Get(ctx context.Context, id int) (*Order, error) {
	var out Order
	if err := o.client.Get(ctx, ordersPath+"/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *Orders) Statistics(ctx context.Context) (*OrderStatistics, error) {
	var out OrderStatistics
	if err := o.client.Get(ctx, orderStatisticsPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Punch reads attendance records. The backend restricts it to admins.
type Punch struct {
	client *request.Client
}

func (p *Punch) Records(ctx context.Context, filter PunchFilter) (*Page[PunchRecord], error) {
	filter.PageParams = filter.PageParams.orDefault()
	if err := validateStruct(filter); err != nil {
		return nil, err
	}

	q := filter.values("size")
	setIf(q, "name", filter.Name)
	setIf(q, "emp_id", filter.EmpID)
	setIf(q, "punch_type", filter.PunchType)
	setIf(q, "start_date", filter.StartDate)
	setIf(q, "end_date", filter.EndDate)

	var out Page[PunchRecord]
	if err := p.client.Get(ctx, punchRecordsPath, &out, request.WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}
