package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-backoffice/internal/middleware"
	"github.com/iliyamo/travel-backoffice/internal/model"
	"github.com/iliyamo/travel-backoffice/internal/repository"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler
	return e
}

// as stands in for JWTAuth in handler tests.
func as(userID uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextUserID, userID)
			c.Set(middleware.ContextRole, role)
			return next(c)
		}
	}
}

func newJSONRequest(method, path, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, path, nil)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	return serve(e, newJSONRequest(method, path, body))
}

type testEnvelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Total   *int64            `json:"total"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func reservationRoutes(svc *fakeReservations, role string) *echo.Echo {
	e := newTestEcho()
	h := NewReservationHandler(svc, "Admin")
	g := e.Group("/api/reservasi", as(7, role))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return e
}

const validReservation = `{
	"nik": "3201234567890001",
	"name": "Budi Santoso",
	"contact": "+6281234567890",
	"type": "flight",
	"ticket_id": "TKT-001",
	"destination": "Bali",
	"date": "2026-11-01",
	"transport_type": "Plane",
	"ticket_price": 1500000,
	"payment_method": "Prepaid"
}`

func TestReservationCreate(t *testing.T) {
	svc := &fakeReservations{}
	e := reservationRoutes(svc, model.RoleTravelAdmin)

	rec := do(e, http.MethodPost, "/api/reservasi", validReservation)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.Equal(t, StatusOK, env.Status)
	assert.Equal(t, "Berhasil menambahkan reservasi", env.Message)

	require.NotNil(t, svc.created)
	assert.Equal(t, "Travel Admin", svc.actor)
	require.NotNil(t, svc.created.AdminID)
	assert.Equal(t, uint64(7), *svc.created.AdminID)
	assert.Equal(t, model.PaymentPending, svc.created.PaymentStatus)
	assert.Equal(t, model.ReservationBooked, svc.created.Status)
	assert.Equal(t, "1500000", svc.created.TotalPrice.String())
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), svc.created.Date)
}

func TestReservationCreateValidation(t *testing.T) {
	e := reservationRoutes(&fakeReservations{}, model.RoleTravelAdmin)

	rec := do(e, http.MethodPost, "/api/reservasi", `{"nik":"12ab","contact":"0812","type":"cruise","ticket_price":-5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decode(t, rec)
	assert.Equal(t, StatusFail, env.Status)
	assert.Equal(t, "Validasi gagal", env.Message)
	assert.Equal(t, "nik harus berupa angka", env.Errors["nik"])
	assert.Equal(t, "name wajib diisi", env.Errors["name"])
	assert.Equal(t, "contact harus berupa nomor telepon dengan awalan +62 atau email yang valid", env.Errors["contact"])
	assert.Equal(t, "type harus salah satu dari: flight, hotel, activity", env.Errors["type"])
	assert.Equal(t, "ticket_price tidak boleh negatif", env.Errors["ticket_price"])
	assert.Equal(t, "payment_method wajib diisi", env.Errors["payment_method"])
}

func TestReservationMalformedBody(t *testing.T) {
	e := reservationRoutes(&fakeReservations{}, model.RoleTravelAdmin)
	rec := do(e, http.MethodPost, "/api/reservasi", `{"date":"kemarin"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Format data tidak valid", decode(t, rec).Message)
}

func TestReservationList(t *testing.T) {
	svc := &fakeReservations{items: []model.Reservation{{ID: 1}, {ID: 2}}}
	e := reservationRoutes(svc, model.RoleTravelAdmin)

	rec := do(e, http.MethodGet, "/api/reservasi?invoiced=false&page=2&limit=5&status=Booked&search=bud", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Total)
	assert.EqualValues(t, 2, *env.Total)

	require.NotNil(t, svc.query.Invoiced)
	assert.False(t, *svc.query.Invoiced)
	assert.Equal(t, 2, svc.query.Page)
	assert.Equal(t, 5, svc.query.PageSize)
	assert.Equal(t, "Booked", svc.query.Status)
	assert.Equal(t, "bud", svc.query.Search)

	rec = do(e, http.MethodGet, "/api/reservasi?invoiced=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		method  string
		path    string
		code    int
		message string
	}{
		{"bad id", nil, http.MethodGet, "/api/reservasi/abc", http.StatusBadRequest, "ID tidak valid"},
		{"zero id", nil, http.MethodGet, "/api/reservasi/0", http.StatusBadRequest, "ID tidak valid"},
		{"missing", repository.ErrReservationNotFound, http.MethodGet, "/api/reservasi/9", http.StatusNotFound, "Reservasi tidak ditemukan"},
		{"billed", repository.ErrReservationBilled, http.MethodDelete, "/api/reservasi/9", http.StatusConflict, "Reservasi sudah masuk ke invoice lain"},
		{"ticket taken", repository.ErrTicketExists, http.MethodPost, "/api/reservasi", http.StatusConflict, "Ticket ID sudah digunakan"},
		{"internal", errBoom, http.MethodDelete, "/api/reservasi/9", http.StatusInternalServerError, msgServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := reservationRoutes(&fakeReservations{err: tc.err}, model.RoleTravelAdmin)
			body := ""
			if tc.method == http.MethodPost {
				body = validReservation
			}
			rec := do(e, tc.method, tc.path, body)
			require.Equal(t, tc.code, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, StatusFail, env.Status)
			assert.Equal(t, tc.message, env.Message)
		})
	}
}

func TestReservationUpdatePartial(t *testing.T) {
	svc := &fakeReservations{}
	e := reservationRoutes(svc, model.RoleTravelAdmin)

	rec := do(e, http.MethodPut, "/api/reservasi/3", `{"status":"Completed","room_price":250000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Reservasi diperbarui", decode(t, rec).Message)

	require.NotNil(t, svc.patch.Status)
	assert.Equal(t, model.ReservationCompleted, *svc.patch.Status)
	require.NotNil(t, svc.patch.RoomPrice)
	assert.Equal(t, "250000", svc.patch.RoomPrice.String())
	assert.Nil(t, svc.patch.Name)
	assert.Nil(t, svc.patch.Date)
}

func invoiceRoutes(svc *fakeInvoices, printer Printer, role string) *echo.Echo {
	e := newTestEcho()
	h := NewInvoiceHandler(svc, printer, "Admin")
	g := e.Group("/api/invois", as(3, role))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/pdf", h.BulkPDF)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/pdf", h.PDF)
	return e
}

func TestInvoiceCreate(t *testing.T) {
	svc := &fakeInvoices{}
	e := invoiceRoutes(svc, nil, model.RoleFinanceAdmin)

	rec := do(e, http.MethodPost, "/api/invois", `{
		"customer_name": "PT Maju",
		"reservation_ids": [4, 2],
		"fee": 50000,
		"payment_method": "Bank Transfer",
		"due_date": "2026-11-30"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Invois dibuat", decode(t, rec).Message)

	assert.Equal(t, "PT Maju", svc.in.CustomerName)
	assert.Equal(t, []uint64{4, 2}, svc.in.ReservationIDs)
	require.NotNil(t, svc.in.Fee)
	assert.Equal(t, "50000", svc.in.Fee.String())
	assert.Nil(t, svc.in.IssuedDate)
	require.NotNil(t, svc.in.DueDate)
	assert.Equal(t, 30, svc.in.DueDate.Day())
}

func TestInvoiceCreateValidation(t *testing.T) {
	e := invoiceRoutes(&fakeInvoices{}, nil, model.RoleFinanceAdmin)

	rec := do(e, http.MethodPost, "/api/invois", `{"customer_name":"X","payment_method":"Bitcoin"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "reservation_ids wajib diisi", env.Errors["reservation_ids"])
	assert.Equal(t, "payment_method harus salah satu dari: Bank Transfer, Credit Card, Cash", env.Errors["payment_method"])

	rec = do(e, http.MethodPost, "/api/invois", `{"customer_name":"X","payment_method":"Cash","reservation_ids":[1,0]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "reservation_ids[1] harus lebih besar dari 0", decode(t, rec).Errors["reservation_ids[1]"])
}

func TestInvoiceCreateWithoutReservations(t *testing.T) {
	svc := &fakeInvoices{err: repository.ErrNoReservations}
	e := invoiceRoutes(svc, nil, model.RoleFinanceAdmin)
	rec := do(e, http.MethodPost, "/api/invois", `{"customer_name":"X","payment_method":"Cash","reservation_ids":[1]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invoice harus memiliki minimal satu reservasi", decode(t, rec).Message)
}

func TestInvoiceUpdateRecordsActor(t *testing.T) {
	svc := &fakeInvoices{}
	e := invoiceRoutes(svc, nil, model.RoleFinanceAdmin)

	rec := do(e, http.MethodPut, "/api/invois/5", `{"status":"Paid"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Invoice diperbarui", decode(t, rec).Message)
	assert.Equal(t, "Finance Admin", svc.actor)
	require.NotNil(t, svc.patch.Status)
	assert.Equal(t, model.InvoicePaid, *svc.patch.Status)
	assert.Nil(t, svc.patch.Fee)

	e = invoiceRoutes(svc, nil, "")
	rec = do(e, http.MethodPut, "/api/invois/5", `{"status":"Lunas"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status harus salah satu dari: Unpaid, Paid", decode(t, rec).Errors["status"])
}

func TestInvoiceUpdateFallbackActor(t *testing.T) {
	svc := &fakeInvoices{}
	e := invoiceRoutes(svc, nil, "")
	rec := do(e, http.MethodPut, "/api/invois/5", `{"fee":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Admin", svc.actor)
	require.NotNil(t, svc.patch.Fee)
	assert.True(t, svc.patch.Fee.IsZero())
}

func TestInvoiceDeleteMissing(t *testing.T) {
	e := invoiceRoutes(&fakeInvoices{err: repository.ErrInvoiceNotFound}, nil, model.RoleFinanceAdmin)
	rec := do(e, http.MethodDelete, "/api/invois/5", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invoice tidak ditemukan", decode(t, rec).Message)
}

func TestInvoicePDF(t *testing.T) {
	printer := &fakePrinter{}
	e := invoiceRoutes(&fakeInvoices{}, printer, model.RoleFinanceAdmin)

	rec := do(e, http.MethodGet, "/api/invois/8/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename=Invoice_Budi_2026-10-16.pdf`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())
	require.Len(t, printer.got, 1)
	assert.Equal(t, uint64(8), printer.got[0].ID)
}

func TestInvoiceBulkPDFKeepsOrder(t *testing.T) {
	printer := &fakePrinter{}
	svc := &fakeInvoices{}
	e := invoiceRoutes(svc, printer, model.RoleFinanceAdmin)

	rec := do(e, http.MethodPost, "/api/invois/pdf", `{"ids":[9,3,6]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []uint64{9, 3, 6}, svc.ids)
	require.Len(t, printer.got, 3)
	assert.Equal(t, uint64(9), printer.got[0].ID)
	assert.Equal(t, uint64(6), printer.got[2].ID)

	rec = do(e, http.MethodPost, "/api/invois/pdf", `{"ids":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ids minimal berisi 1 item", decode(t, rec).Errors["ids"])
}

func TestInvoicePDFFailures(t *testing.T) {
	e := invoiceRoutes(&fakeInvoices{}, nil, model.RoleFinanceAdmin)
	rec := do(e, http.MethodGet, "/api/invois/8/pdf", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Layanan PDF tidak tersedia", decode(t, rec).Message)

	e = invoiceRoutes(&fakeInvoices{}, &fakePrinter{err: errBoom}, model.RoleFinanceAdmin)
	rec = do(e, http.MethodGet, "/api/invois/8/pdf", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Gagal membuat PDF", decode(t, rec).Message)

	e = invoiceRoutes(&fakeInvoices{err: repository.ErrInvoiceNotFound}, &fakePrinter{}, model.RoleFinanceAdmin)
	rec = do(e, http.MethodPost, "/api/invois/pdf", `{"ids":[1]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLedgerReports(t *testing.T) {
	reports := &fakeReports{}
	activity := &fakeActivity{}
	h := NewLedgerHandler(reports, activity)
	e := newTestEcho()
	e.GET("/api/laporan", h.ListReports)
	e.GET("/api/laporan/:id", h.GetReport)
	e.GET("/api/log-transaksi", h.ListActivity)

	rec := do(e, http.MethodGet, "/api/laporan?type=Income&invoice_id=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Total)
	assert.EqualValues(t, 2, *env.Total)
	assert.Equal(t, repository.ReportQuery{Type: "Income", InvoiceID: 4}, reports.query)

	rec = do(e, http.MethodGet, "/api/laporan?type=Refund", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "type harus salah satu dari: Income, Expense", decode(t, rec).Message)

	reports.err = repository.ErrReportNotFound
	rec = do(e, http.MethodGet, "/api/laporan/12", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Laporan tidak ditemukan", decode(t, rec).Message)

	rec = do(e, http.MethodGet, "/api/log-transaksi?reference_type=Invoice&reference_id=3&search=lunas&limit=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.ActivityQuery{ReferenceType: "Invoice", ReferenceID: 3, Search: "lunas", Limit: 20}, activity.query)

	rec = do(e, http.MethodGet, "/api/log-transaksi?reference_type=Payment", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardStats(t *testing.T) {
	e := newTestEcho()
	stats := model.DashboardStats{TotalReservations: 12, MonthlyReservations: []model.MonthlyBucket{{Year: 2026, Month: 10, MonthName: "Okt", TotalReservations: 3}}}
	e.GET("/ok", NewDashboardHandler(fakeDashboard{stats: stats}).Stats)
	e.GET("/fail", NewDashboardHandler(fakeDashboard{err: errBoom}).Stats)

	rec := do(e, http.MethodGet, "/ok", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.DashboardStats
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.EqualValues(t, 12, got.TotalReservations)
	require.Len(t, got.MonthlyReservations, 1)
	assert.Equal(t, "Okt", got.MonthlyReservations[0].MonthName)

	rec = do(e, http.MethodGet, "/fail", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Gagal mengambil data dashboard", decode(t, rec).Message)
}

func TestHealth(t *testing.T) {
	e := newTestEcho()
	e.GET("/up", Health(fakePinger{}))
	e.GET("/down", Health(fakePinger{err: errBoom}))
	e.GET("/bare", Health(nil))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/up", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/bare", "").Code)
}

func TestHTTPErrorHandler(t *testing.T) {
	e := newTestEcho()
	e.Match([]string{http.MethodGet, http.MethodHead}, "/forbidden", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "Akses ditolak")
	})
	e.GET("/raw", func(echo.Context) error { return echo.ErrInternalServerError })

	rec := do(e, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, StatusFail, decode(t, rec).Status)

	rec = do(e, http.MethodGet, "/forbidden", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Akses ditolak", decode(t, rec).Message)

	rec = do(e, http.MethodGet, "/raw", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgServerError, decode(t, rec).Message)

	rec = do(e, http.MethodHead, "/forbidden", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestPhoneOrEmail(t *testing.T) {
	v := NewValidator()
	type contact struct {
		Contact string `json:"contact" validate:"phone_or_email"`
	}
	for in, ok := range map[string]bool{
		"+6281234567890":          true,
		"budi@example.com":        true,
		"081234567890":            false,
		"+62123":                  false,
		"Budi <budi@example.com>": false,
		"not an email":            false,
	} {
		err := v.Validate(contact{Contact: in})
		if ok {
			assert.NoError(t, err, in)
		} else {
			assert.Error(t, err, in)
		}
	}
}

func TestMustRegisterPanicsOnBadRule(t *testing.T) {
	v := validator.New()
	assert.Panics(t, func() { mustRegister(v, "", phoneOrEmail) })
	assert.NotPanics(t, func() { mustRegister(v, "phone_or_email", phoneOrEmail) })
}

func TestDateUnmarshal(t *testing.T) {
	var body struct {
		A Date  `json:"a"`
		B Date  `json:"b"`
		C *Date `json:"c"`
		D Date  `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2026-03-04","b":"2026-03-04T10:20:30+07:00","c":null,"d":""}`), &body))
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), body.A.Time)
	assert.Equal(t, time.Date(2026, 3, 4, 3, 20, 30, 0, time.UTC), body.B.Time)
	assert.Nil(t, body.C.Ptr())
	assert.Nil(t, body.D.Ptr())

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"04/03/2026"`), &bad))
}

func TestOneOfParams(t *testing.T) {
	assert.Equal(t, []string{"Bank Transfer", "Credit Card", "Cash"}, oneOfParams("'Bank Transfer' 'Credit Card' Cash"))
	assert.Equal(t, []string{"Unpaid", "Paid"}, oneOfParams("Unpaid Paid"))
	assert.Nil(t, oneOfParams(""))
}
