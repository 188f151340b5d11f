package api

import (
	"context"
	"net/url"

	"github.com/jrsteele09/oa-client/request"
)

const (
	machinesPath = "/api/machines"
	partsPath    = "/api/parts"
)

type Machines struct {
	client *request.Client
}

// List returns one page of machines. Prices the caller's role may not see
// are omitted by the server.
func (m *Machines) List(ctx context.Context, page PageParams) (*MachineList, error) {
	page = page.orDefault()
	if err := validateStruct(page); err != nil {
		return nil, err
	}
	var out MachineList
	if err := m.client.Get(ctx, machinesPath, &out, request.WithQuery(page.values("per_page"))); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Machines) Get(ctx context.Context, model string) (*Machine, error) {
	var out Machine
	if err := m.client.Get(ctx, machinePath(model), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Machines) Create(ctx context.Context, machine Machine) (*Machine, error) {
	if err := validateStruct(machine); err != nil {
		return nil, err
	}
	var out Machine
	if err := m.client.Post(ctx, machinesPath, machine, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Machines) Update(ctx context.Context, machine Machine) (*Machine, error) {
	if err := validateStruct(machine); err != nil {
		return nil, err
	}
	var out Machine
	if err := m.client.Put(ctx, machinePath(machine.Model), machine, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Machines) Delete(ctx context.Context, model string) error {
	return m.client.Delete(ctx, machinePath(model), nil)
}

func machinePath(model string) string {
	return machinesPath + "/" + url.PathEscape(model)
}

type Parts struct {
	client *request.Client
}

func (p *Parts) List(ctx context.Context, page PageParams) (*PartList, error) {
	page = page.orDefault()
	if err := validateStruct(page); err != nil {
		return nil, err
	}
	var out PartList
	if err := p.client.Get(ctx, partsPath, &out, request.WithQuery(page.values("per_page"))); err != nil {
		return nil, err
	}
	return &out, nil
}
