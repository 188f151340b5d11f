package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/oa-client/api"
	"github.com/jrsteele09/oa-client/credential"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/internal/fakeoa"
	"github.com/jrsteele09/oa-client/notice"
	"github.com/jrsteele09/oa-client/request"
	"github.com/jrsteele09/oa-client/session"
	"github.com/jrsteele09/oa-client/token"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv     *fakeoa.Server
	api     *api.API
	session *session.AuthSession
	notices *notice.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := fakeoa.New()
	t.Cleanup(srv.Close)

	rec := &notice.Recorder{}
	sess := session.New(credential.NewInMemoryStore(), session.WithNotifier(rec))
	client, err := request.New(srv.URL, sess)
	require.NoError(t, err)
	return &fixture{srv: srv, api: api.New(client), session: sess, notices: rec}
}

func (f *fixture) login(t *testing.T, u fakeoa.User) {
	t.Helper()
	_, err := f.api.Auth.LoginTOTP(context.Background(), u.EmpID, u.TOTPCode)
	require.NoError(t, err)
}

func TestLoginTOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.api.Auth.LoginTOTP(ctx, fakeoa.DefaultAdmin.EmpID, fakeoa.DefaultAdmin.TOTPCode)
	require.NoError(t, err)
	require.Equal(t, token.RoleAdmin, res.UserRole)

	claims, err := f.session.Claims(ctx)
	require.NoError(t, err)
	require.True(t, claims.IsAdmin())
	require.Equal(t, fakeoa.DefaultAdmin.EmpID, claims.EmpID)

	require.NoError(t, f.api.Auth.Logout(ctx))
	_, err = f.session.Token(ctx)
	require.ErrorIs(t, err, oaerrors.ErrNoCredential)
}

func TestLoginTOTPRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.api.Auth.LoginTOTP(ctx, fakeoa.DefaultUser.EmpID, "000000")
	var reqErr *request.Error
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, request.KindBusinessError, reqErr.Kind)
	require.Equal(t, "invalid TOTP code", reqErr.Message)
	require.Equal(t, 0, f.srv.RefreshCalls())

	_, err = f.api.Auth.LoginTOTP(ctx, fakeoa.DefaultUser.EmpID, "12ab")
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}

func TestAuthRefresh(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)
	ctx := context.Background()
	before, err := f.session.Token(ctx)
	require.NoError(t, err)

	fresh, err := f.api.Auth.Refresh(ctx)
	require.NoError(t, err)
	require.NotEqual(t, before, fresh)

	stored, err := f.session.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, fresh, stored)
}

func TestMachinesHidePricesFromEmployees(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)

	list, err := f.api.Machines.List(context.Background(), api.PageParams{})
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Equal(t, 1, list.CurrentPage)
	require.Len(t, list.Machines, 2)
	for _, m := range list.Machines {
		require.Nil(t, m.OriginalPrice)
		require.NotNil(t, m.ShowPrice)
	}
	require.Equal(t, "68000.00", list.Machines[0].ShowPrice.String())
}

func TestMachinesAdminLifecycle(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultAdmin)
	ctx := context.Background()

	list, err := f.api.Machines.List(ctx, api.PageParams{Page: 1, Size: 1})
	require.NoError(t, err)
	require.Len(t, list.Machines, 1)
	require.Equal(t, 2, list.Pages)
	require.NotNil(t, list.Machines[0].OriginalPrice)

	created, err := f.api.Machines.Create(ctx, api.Machine{Model: "SW 900/X", PackingSpeed: "30 bags/min"})
	require.NoError(t, err)
	require.Equal(t, "SW 900/X", created.Model)

	got, err := f.api.Machines.Get(ctx, "SW 900/X")
	require.NoError(t, err)
	require.Equal(t, "30 bags/min", got.PackingSpeed)

	updated, err := f.api.Machines.Update(ctx, api.Machine{Model: "SW 900/X", PackingSpeed: "35 bags/min"})
	require.NoError(t, err)
	require.Equal(t, "35 bags/min", updated.PackingSpeed)

	require.NoError(t, f.api.Machines.Delete(ctx, "SW 900/X"))

	_, err = f.api.Machines.Get(ctx, "SW 900/X")
	var reqErr *request.Error
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, request.KindBusinessError, reqErr.Kind)
	require.Equal(t, "machine not found", reqErr.Message)
}

func TestMachineValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.api.Machines.Create(context.Background(), api.Machine{})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)

	_, err = f.api.Machines.List(context.Background(), api.PageParams{Page: 1, Size: 500})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}

func TestPartsList(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)

	parts, err := f.api.Parts.List(context.Background(), api.DefaultPage)
	require.NoError(t, err)
	require.Len(t, parts.Parts, 2)
	require.Nil(t, parts.Parts[0].OriginalPrice)
}

func TestOrders(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)
	ctx := context.Background()

	page, err := f.api.Orders.List(ctx, api.OrderFilter{OrderStatus: "shipped"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "SO-2024-001", page.List[0].OrderNo)
	require.Equal(t, api.Decimal(68000), page.List[0].ContractAmount)

	order, err := f.api.Orders.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Blue Farm", order.CustomerName)

	stats, err := f.api.Orders.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalOrders)
	require.Equal(t, api.Decimal(147000), stats.TotalAmount)

	_, err = f.api.Orders.List(ctx, api.OrderFilter{StartDate: "01/02/2024"})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}

func TestPunchRecordsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)
	ctx := context.Background()

	_, err := f.api.Punch.Records(ctx, api.PunchFilter{})
	var reqErr *request.Error
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, request.KindBusinessError, reqErr.Kind)
	require.Equal(t, 403, reqErr.Status)

	f.login(t, fakeoa.DefaultAdmin)
	page, err := f.api.Punch.Records(ctx, api.PunchFilter{EmpID: fakeoa.DefaultUser.EmpID})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "in", page.List[0].PunchType)
}

func TestCallsSurviveExpiredToken(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.SignIn(context.Background(), f.srv.Issue(fakeoa.DefaultUser.EmpID, -time.Minute)))

	stats, err := f.api.Orders.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalOrders)
	require.Equal(t, 1, f.srv.RefreshCalls())
}

func TestDecimalAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		A api.Decimal  `json:"a"`
		B api.Decimal  `json:"b"`
		C *api.Decimal `json:"c"`
		D api.Decimal  `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":"99.90","c":null,"d":""}`), &v))
	require.Equal(t, api.Decimal(12.5), v.A)
	require.Equal(t, api.Decimal(99.9), v.B)
	require.Nil(t, v.C)
	require.Equal(t, api.Decimal(0), v.D)

	require.Error(t, json.Unmarshal([]byte(`{"a":"abc"}`), &v))
}

func TestUploadRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)
	ctx := context.Background()

	res, err := f.api.Uploads.Upload(ctx, `report<2024>.pdf`, strings.NewReader("pdf-bytes"), "")
	require.NoError(t, err)
	require.Equal(t, "report_2024_.pdf", res.Filename)
	require.Equal(t, int64(len("pdf-bytes")), res.Size)
	require.False(t, res.TargetPathProvided)

	stored, ok := f.srv.File(res.Path)
	require.True(t, ok)
	require.Equal(t, "pdf-bytes", string(stored))

	moved, err := f.api.Uploads.Move(ctx, res.Path, "orders/1/report.pdf")
	require.NoError(t, err)
	require.Equal(t, "orders/1/report.pdf", moved.TargetPath)

	deleted, err := f.api.Uploads.Delete(ctx, "orders/1/report.pdf")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(deleted.MovedToPath, "deleted/report_"))

	_, err = f.api.Uploads.Move(ctx, "", "x")
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}

func TestInquiriesAreScopedToCreator(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)
	ctx := context.Background()

	page, err := f.api.Inquiries.List(ctx, api.InquiryFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "Acme Foods", page.List[0].CompanyName)

	created, err := f.api.Inquiries.Create(ctx, api.Inquiry{
		Area:             "EU",
		InquirySource:    "website",
		ContactPerson:    "Clara",
		Email:            "clara@example.com",
		PackagingProduct: "tea",
		MachineType:      "stick pack",
	})
	require.NoError(t, err)
	require.Equal(t, fakeoa.DefaultUser.EmpID, created.CreatorID)
	require.NotEmpty(t, created.CreateTime)

	created.MachineType = "sachet"
	updated, err := f.api.Inquiries.Update(ctx, *created)
	require.NoError(t, err)
	require.Equal(t, "sachet", updated.MachineType)
	require.Equal(t, created.ID, updated.ID)

	got, err := f.api.Inquiries.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "sachet", got.MachineType)

	stats, err := f.api.Inquiries.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalInquiries)
	require.Equal(t, 2, stats.ByArea["EU"])
	require.Equal(t, 1, stats.BySource["website"])

	_, err = f.api.Inquiries.Get(ctx, 2)
	var reqErr *request.Error
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, request.KindBusinessError, reqErr.Kind)
	require.Equal(t, 403, reqErr.Status)

	require.NoError(t, f.api.Inquiries.Delete(ctx, created.ID))
	_, err = f.api.Inquiries.Get(ctx, created.ID)
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "inquiry not found", reqErr.Message)

	f.login(t, fakeoa.DefaultAdmin)
	page, err = f.api.Inquiries.List(ctx, api.InquiryFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
}

func TestInquiryValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.api.Inquiries.Create(ctx, api.Inquiry{ContactPerson: "Dana"})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)

	_, err = f.api.Inquiries.Create(ctx, api.Inquiry{ContactPerson: "Dana", PackagingProduct: "nuts", MachineType: "VFFS", Email: "not-an-email"})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)

	_, err = f.api.Inquiries.List(ctx, api.InquiryFilter{EndDate: "2024/01/31"})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}

func TestExpensesAdminLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.login(t, fakeoa.DefaultUser)
	_, err := f.api.Expenses.List(ctx, api.ExpenseFilter{})
	var reqErr *request.Error
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 403, reqErr.Status)

	f.login(t, fakeoa.DefaultAdmin)
	page, err := f.api.Expenses.List(ctx, api.ExpenseFilter{TargetYear: 2024})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, api.Decimal(12000), page.List[0].Amount)

	created, err := f.api.Expenses.Create(ctx, api.Expense{Name: "Freight", Amount: 2500.5, TargetYear: 2025})
	require.NoError(t, err)
	require.Equal(t, "full allocation", created.ExpenseType)
	require.Equal(t, "2500.50", created.Amount.String())

	created.Remark = "sea freight"
	updated, err := f.api.Expenses.Update(ctx, *created)
	require.NoError(t, err)
	require.Equal(t, "sea freight", updated.Remark)

	page, err = f.api.Expenses.List(ctx, api.ExpenseFilter{TargetYear: 2025})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	require.NoError(t, f.api.Expenses.Delete(ctx, created.ID))
	_, err = f.api.Expenses.Get(ctx, created.ID)
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "expense not found", reqErr.Message)

	_, err = f.api.Expenses.Create(ctx, api.Expense{Name: "No year"})
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}

func TestUploadChunked(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)

	content := bytes.Repeat([]byte("0123456789"), 25)
	res, err := f.api.Uploads.UploadChunked(context.Background(), "big.bin", bytes.NewReader(content), int64(len(content)), 64, "machines/SW-420")
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), res.Size)
	require.NotEmpty(t, res.FileIdentifier)
	require.True(t, strings.HasPrefix(res.Path, "machines/SW-420/"))
	require.Equal(t, 4, f.srv.Hits("POST", "/api/upload/chunk"))

	stored, ok := f.srv.File(res.Path)
	require.True(t, ok)
	require.Equal(t, content, stored)
}

func TestUploadChunkedShortReader(t *testing.T) {
	f := newFixture(t)
	f.login(t, fakeoa.DefaultUser)

	_, err := f.api.Uploads.UploadChunked(context.Background(), "big.bin", strings.NewReader("short"), 100, 10, "")
	require.ErrorIs(t, err, oaerrors.ErrInvalidInput)
}
