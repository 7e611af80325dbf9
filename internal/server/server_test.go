package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-pos-ventas/internal/auth"
	"go-pos-ventas/internal/config"
	"go-pos-ventas/internal/database/dbtest"
	"go-pos-ventas/internal/models"
	"go-pos-ventas/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	db      *gorm.DB
	router  *gin.Engine
	admin   string
	clerk   string
	clerkID uint
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		BaseURL:        "http://localhost:8080",
		AllowedOrigins: []string{"http://localhost:5173"},
		DBDriver:       "sqlite",
		JWTSecret:      "test-secret-that-is-at-least-32-characters",
		TokenTTL:       time.Hour,
		UploadDir:      t.TempDir(),
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := testConfig(t)
	db := dbtest.New(t)

	h := NewHandler(cfg, db, realtime.NewHub(), nil, "local")
	e := &env{db: db, router: NewRouter(cfg, h)}

	admin := models.User{Username: "boss", PasswordHash: mustHash(t, "boss-password"), Role: models.RoleAdmin}
	clerk := models.User{Username: "clerk", PasswordHash: mustHash(t, "clerk-password"), Role: models.RoleEmployee}
	for _, u := range []*models.User{&admin, &clerk} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	e.admin = e.login(t, "boss", "boss-password")
	e.clerk = e.login(t, "clerk", "clerk-password")
	e.clerkID = clerk.ID

	soap := models.Product{Code: "P1", Name: "Soap", Category: "Bath", SalePrice: decimal.NewFromInt(5), CostPrice: decimal.NewFromInt(3), ManagerCommission: decimal.NewFromInt(1), StockQuantity: 10}
	if err := db.Create(&soap).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return e
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	hash, err := auth.HashPassword(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

func (e *env) login(t *testing.T, user, pw string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/login", "", map[string]string{"username": user, "password": pw})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", user, w.Code, w.Body)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, w, &out)
	return out.Token
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body, err)
	}
}

func anaSale(qty int) map[string]interface{} {
	return map[string]interface{}{
		"lines":    []map[string]interface{}{{"code": "P1", "quantity": qty}},
		"customer": map[string]string{"name": "Ana", "id_number": "123", "address": "Calle 1"},
	}
}

func today() string {
	now := time.Now()
	return fmt.Sprintf("day=%d&month=%d&year=%d", now.Day(), int(now.Month()), now.Year())
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	if w := e.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/register", "", map[string]string{"username": "x", "password": "y"}); w.Code != http.StatusNotFound {
		t.Errorf("register without flag = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/venta", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list = %d, want 401", w.Code)
	}
}

type saleResponse struct {
	Message     string `json:"message"`
	InvoiceCode string `json:"invoice_code"`
	Sale        struct {
		ID            uint                     `json:"id"`
		Manager       string                   `json:"manager"`
		TotalAmount   decimal.Decimal          `json:"total_amount"`
		TotalQuantity int                      `json:"total_quantity"`
		Lines         []map[string]interface{} `json:"lines"`
	} `json:"sale"`
}

func TestRecordSaleFlow(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/venta/ultimo-codigo-factura", e.clerk, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"0001"`) {
		t.Fatalf("peek = %d %s", w.Code, w.Body)
	}

	w = e.do(t, http.MethodPost, "/api/venta", e.clerk, anaSale(2))
	if w.Code != http.StatusCreated {
		t.Fatalf("record = %d %s", w.Code, w.Body)
	}
	var got saleResponse
	decode(t, w, &got)
	if got.InvoiceCode != "0001" || got.Sale.Manager != models.NoManager || !got.Sale.TotalAmount.Equal(decimal.NewFromInt(10)) || got.Sale.TotalQuantity != 2 {
		t.Errorf("sale = %+v", got)
	}
	if _, leaked := got.Sale.Lines[0]["cost_price"]; leaked {
		t.Errorf("employee response shows cost: %v", got.Sale.Lines[0])
	}

	var soap models.Product
	e.db.Where("code = ?", "P1").First(&soap)
	if soap.StockQuantity != 8 {
		t.Errorf("stock = %d, want 8", soap.StockQuantity)
	}

	var stored models.Sale
	e.db.First(&stored, got.Sale.ID)
	if stored.CreatedBy != e.clerkID {
		t.Errorf("created_by = %d, want %d", stored.CreatedBy, e.clerkID)
	}

	w = e.do(t, http.MethodGet, "/api/venta/ultimo-codigo-factura", e.clerk, nil)
	if !strings.Contains(w.Body.String(), `"0002"`) {
		t.Errorf("peek after sale = %s", w.Body)
	}
}

func TestRecordSaleErrors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body interface{}
		want int
		msg  string
	}{
		{"no lines", map[string]interface{}{"customer": map[string]string{"name": "Ana", "id_number": "1", "address": "x"}}, http.StatusBadRequest, "missing required fields"},
		{"no customer", map[string]interface{}{"lines": []map[string]interface{}{{"code": "P1", "quantity": 1}}}, http.StatusBadRequest, "incomplete customer data"},
		{"unknown product", map[string]interface{}{
			"lines":    []map[string]interface{}{{"code": "NOPE", "quantity": 1}},
			"customer": map[string]string{"name": "Ana", "id_number": "1", "address": "x"},
		}, http.StatusNotFound, "product not found"},
		{"too many", anaSale(11), http.StatusBadRequest, "insufficient stock"},
		{"not json", "lines", http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/venta", e.clerk, tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body)
			}
			var out map[string]interface{}
			decode(t, w, &out)
			if msg, _ := out["message"].(string); !strings.Contains(msg, tt.msg) {
				t.Errorf("message = %q, want it to contain %q", msg, tt.msg)
			}
			if _, ok := out["error"]; ok {
				t.Errorf("raw error exposed without DEBUG: %v", out)
			}
		})
	}

	var n int64
	e.db.Model(&models.Sale{}).Count(&n)
	if n != 0 {
		t.Errorf("sales persisted = %d", n)
	}
}

func TestListAndDeleteSales(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		if w := e.do(t, http.MethodPost, "/api/venta", e.clerk, anaSale(1)); w.Code != http.StatusCreated {
			t.Fatalf("record: %d %s", w.Code, w.Body)
		}
	}

	w := e.do(t, http.MethodGet, "/api/venta?page=1&limit=2&"+today(), e.clerk, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d %s", w.Code, w.Body)
	}
	var page struct {
		Items []struct {
			ID          uint   `json:"id"`
			InvoiceCode string `json:"invoice_code"`
		} `json:"items"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	}
	decode(t, w, &page)
	if page.Total != 3 || page.TotalPages != 2 || len(page.Items) != 2 || page.Items[0].InvoiceCode != "0003" {
		t.Fatalf("page = %+v", page)
	}

	if w := e.do(t, http.MethodGet, "/api/venta?day=31&month=2&year=2026", e.clerk, nil); w.Code != http.StatusBadRequest {
		t.Errorf("impossible date = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/venta/all", e.clerk, nil); w.Code != http.StatusBadRequest {
		t.Errorf("all without date = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/venta/all?"+today(), e.clerk, nil); w.Code != http.StatusOK || strings.Count(w.Body.String(), `"invoice_code"`) != 3 {
		t.Errorf("all for today = %d %s", w.Code, w.Body)
	}

	target := fmt.Sprintf("/api/venta/%d", page.Items[0].ID)
	if w := e.do(t, http.MethodDelete, target, e.clerk, nil); w.Code != http.StatusForbidden {
		t.Errorf("employee delete = %d, want 403", w.Code)
	}
	if w := e.do(t, http.MethodDelete, target, e.admin, nil); w.Code != http.StatusOK {
		t.Errorf("admin delete = %d %s", w.Code, w.Body)
	}
	if w := e.do(t, http.MethodDelete, target, e.admin, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}

	var soap models.Product
	e.db.Where("code = ?", "P1").First(&soap)
	if soap.StockQuantity != 7 {
		t.Errorf("stock after delete = %d, want 7 (not restored)", soap.StockQuantity)
	}
}

func TestStatisticsAreRoleShaped(t *testing.T) {
	e := newEnv(t)
	body := anaSale(2)
	body["manager"] = "Luis"
	if w := e.do(t, http.MethodPost, "/api/venta", e.clerk, body); w.Code != http.StatusCreated {
		t.Fatalf("record: %d %s", w.Code, w.Body)
	}

	clerk := e.do(t, http.MethodGet, "/api/venta/estadisticas", e.clerk, nil)
	if clerk.Code != http.StatusOK || strings.Contains(clerk.Body.String(), "gross_profit") {
		t.Errorf("employee statistics = %d %s", clerk.Code, clerk.Body)
	}

	admin := e.do(t, http.MethodGet, "/api/venta/estadisticas?"+today(), e.admin, nil)
	var out struct {
		Statistics struct {
			TotalRevenue             decimal.Decimal `json:"total_revenue"`
			TotalGrossProfit         decimal.Decimal `json:"total_gross_profit"`
			NetProfitAfterCommission decimal.Decimal `json:"net_profit_after_commission"`
			BestSelling              struct {
				Summary string `json:"summary"`
			} `json:"best_selling"`
		} `json:"statistics"`
	}
	decode(t, admin, &out)
	st := out.Statistics
	if !st.TotalRevenue.Equal(decimal.NewFromInt(10)) || !st.TotalGrossProfit.Equal(decimal.NewFromInt(4)) || !st.NetProfitAfterCommission.Equal(decimal.NewFromInt(2)) {
		t.Errorf("admin statistics = %+v", st)
	}
	if st.BestSelling.Summary != "Soap with 2 units" {
		t.Errorf("best seller = %q", st.BestSelling.Summary)
	}

	sold := e.do(t, http.MethodGet, "/api/venta/productos-hoy", e.clerk, nil)
	if sold.Code != http.StatusOK || !strings.Contains(sold.Body.String(), `"Soap"`) {
		t.Errorf("products sold = %d %s", sold.Code, sold.Body)
	}

	for _, path := range []string{"/api/venta/mes", "/api/venta/ano", "/api/venta/gestor", "/api/venta/mas-vendido-diario"} {
		if w := e.do(t, http.MethodGet, path, e.clerk, nil); w.Code != http.StatusForbidden {
			t.Errorf("employee %s = %d", path, w.Code)
		}
		if w := e.do(t, http.MethodGet, path, e.admin, nil); w.Code != http.StatusOK {
			t.Errorf("admin %s = %d %s", path, w.Code, w.Body)
		}
	}
	if w := e.do(t, http.MethodGet, "/api/venta/gestor", e.admin, nil); !strings.Contains(w.Body.String(), `"Luis"`) {
		t.Errorf("manager totals = %s", w.Body)
	}
	if w := e.do(t, http.MethodGet, "/api/venta/mes?month=13", e.admin, nil); w.Code != http.StatusBadRequest {
		t.Errorf("month 13 = %d", w.Code)
	}
}

func TestExportSales(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/venta", e.clerk, anaSale(1))

	w := e.do(t, http.MethodGet, "/api/venta/export", e.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
	if w := e.do(t, http.MethodGet, "/api/venta/export", e.clerk, nil); w.Code != http.StatusForbidden {
		t.Errorf("employee export = %d", w.Code)
	}
}

func TestProductsAndManagers(t *testing.T) {
	e := newEnv(t)

	newProduct := map[string]interface{}{"code": "P2", "name": "Towel", "sale_price": 12, "cost_price": "8.50", "stock_quantity": 4}
	if w := e.do(t, http.MethodPost, "/api/productos", e.clerk, newProduct); w.Code != http.StatusForbidden {
		t.Errorf("employee create product = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/api/productos", e.admin, newProduct); w.Code != http.StatusCreated {
		t.Fatalf("create product = %d %s", w.Code, w.Body)
	}
	if w := e.do(t, http.MethodPost, "/api/productos", e.admin, newProduct); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate code = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/api/productos", e.admin, map[string]interface{}{"code": "P3", "name": "Bad", "sale_price": -1}); w.Code != http.StatusBadRequest {
		t.Errorf("negative price = %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/api/productos?search=tow", e.clerk, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Towel") || strings.Contains(w.Body.String(), "Soap") {
		t.Errorf("search = %d %s", w.Code, w.Body)
	}
	if strings.Contains(w.Body.String(), "cost_price") {
		t.Errorf("employee sees product cost: %s", w.Body)
	}
	if w := e.do(t, http.MethodGet, "/api/productos/scan/P2", e.admin, nil); !strings.Contains(w.Body.String(), "cost_price") {
		t.Errorf("admin scan = %s", w.Body)
	}
	if w := e.do(t, http.MethodGet, "/api/productos/scan/NOPE", e.clerk, nil); w.Code != http.StatusNotFound {
		t.Errorf("scan unknown = %d", w.Code)
	}

	if w := e.do(t, http.MethodPost, "/api/gestor", e.admin, map[string]string{"name": "Luis"}); w.Code != http.StatusCreated {
		t.Fatalf("create manager = %d %s", w.Code, w.Body)
	}
	if w := e.do(t, http.MethodPost, "/api/gestor", e.admin, map[string]string{"name": "Luis"}); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate manager = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/api/gestor", e.admin, map[string]string{"name": "None"}); w.Code != http.StatusBadRequest {
		t.Errorf("sentinel manager name = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/gestor", e.clerk, nil); !strings.Contains(w.Body.String(), "Luis") {
		t.Errorf("manager list = %s", w.Body)
	}
}

func TestUpdateProductKeepsConcurrentSale(t *testing.T) {
	e := newEnv(t)
	var soap models.Product
	e.db.Where("code = ?", "P1").First(&soap)

	// a sale of 3 lands right after the update has read the product
	sold := false
	err := e.db.Callback().Query().After("gorm:query").Register("sell_after_product_read", func(tx *gorm.DB) {
		if sold || tx.Statement.Table != "products" {
			return
		}
		sold = true
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET stock_quantity = stock_quantity - 3 WHERE id = ?", soap.ID)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	w := e.do(t, http.MethodPut, fmt.Sprintf("/api/productos/%d", soap.ID), e.admin, map[string]string{"name": "Soap Deluxe"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename = %d %s", w.Code, w.Body)
	}
	if !sold {
		t.Fatal("concurrent sale never ran")
	}

	var got models.Product
	e.db.First(&got, soap.ID)
	if got.Name != "Soap Deluxe" {
		t.Errorf("name = %q", got.Name)
	}
	if got.StockQuantity != 7 {
		t.Errorf("stock after rename = %d, want 7", got.StockQuantity)
	}
	if !got.SalePrice.Equal(decimal.NewFromInt(5)) {
		t.Errorf("sale price = %s, want untouched 5", got.SalePrice)
	}
}

func TestUpdateProductErrors(t *testing.T) {
	e := newEnv(t)
	var soap models.Product
	e.db.Where("code = ?", "P1").First(&soap)
	path := fmt.Sprintf("/api/productos/%d", soap.ID)

	if w := e.do(t, http.MethodPut, path, e.admin, map[string]interface{}{"sale_price": -2}); w.Code != http.StatusBadRequest {
		t.Errorf("negative price = %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/api/productos/999", e.admin, map[string]string{"name": "Ghost"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown product = %d", w.Code)
	}

	towel := models.Product{Code: "P2", Name: "Towel", SalePrice: decimal.NewFromInt(12)}
	e.db.Create(&towel)
	if w := e.do(t, http.MethodPut, path, e.admin, map[string]string{"code": "P2"}); w.Code != http.StatusBadRequest {
		t.Errorf("code clash = %d", w.Code)
	}

	var got models.Product
	e.db.First(&got, soap.ID)
	if !got.SalePrice.Equal(decimal.NewFromInt(5)) || got.Code != "P1" {
		t.Errorf("rejected updates were written: %+v", got)
	}
}

func upload(t *testing.T, e *env, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte("\x89PNG fake image"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.admin)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	e := newEnv(t)

	w := upload(t, e, "soap.PNG")
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", w.Code, w.Body)
	}
	var out struct {
		URL string `json:"url"`
	}
	decode(t, w, &out)
	if !strings.HasPrefix(out.URL, "http://localhost:8080/uploads/") || !strings.HasSuffix(out.URL, ".png") {
		t.Errorf("url = %q", out.URL)
	}

	served := e.do(t, http.MethodGet, strings.TrimPrefix(out.URL, "http://localhost:8080"), "", nil)
	if served.Code != http.StatusOK {
		t.Errorf("uploaded file not served: %d", served.Code)
	}

	if w := upload(t, e, "run.sh"); w.Code != http.StatusBadRequest {
		t.Errorf("script upload = %d, want 400", w.Code)
	}
}

func TestUsers(t *testing.T) {
	e := newEnv(t)

	if w := e.do(t, http.MethodGet, "/api/usuarios", e.clerk, nil); w.Code != http.StatusForbidden {
		t.Errorf("employee lists users = %d", w.Code)
	}

	w := e.do(t, http.MethodPost, "/api/usuarios", e.admin, map[string]string{"username": "maria", "password": "maria-password", "role": "employee"})
	if w.Code != http.StatusCreated || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("create user = %d %s", w.Code, w.Body)
	}
	if w := e.do(t, http.MethodPost, "/api/usuarios", e.admin, map[string]string{"username": "maria", "password": "maria-password"}); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate user = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/api/usuarios", e.admin, map[string]string{"username": "pepe", "password": "short"}); w.Code != http.StatusBadRequest {
		t.Errorf("weak password = %d", w.Code)
	}

	var boss models.User
	e.db.Where("username = ?", "boss").First(&boss)
	if w := e.do(t, http.MethodPut, fmt.Sprintf("/api/usuarios/%d", boss.ID), e.admin, map[string]string{"role": "employee"}); w.Code != http.StatusBadRequest {
		t.Errorf("admin downgrade = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, fmt.Sprintf("/api/usuarios/%d", boss.ID), e.admin, nil); w.Code != http.StatusBadRequest {
		t.Errorf("self delete = %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, fmt.Sprintf("/api/usuarios/%d", e.clerkID), e.admin, map[string]string{"role": "admin"}); w.Code != http.StatusOK {
		t.Errorf("promote employee = %d %s", w.Code, w.Body)
	}
}

func TestReportsAndAssistant(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/venta", e.clerk, anaSale(2))

	w := e.do(t, http.MethodGet, "/api/reports/valuation", e.admin, nil)
	var v struct {
		GrandTotal decimal.Decimal `json:"grand_total"`
	}
	decode(t, w, &v)
	if !v.GrandTotal.Equal(decimal.NewFromInt(24)) {
		t.Errorf("valuation = %s, want 24 (8 soaps at 3)", v.GrandTotal)
	}

	w = e.do(t, http.MethodGet, "/api/reports", e.admin, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"sales":1`) {
		t.Errorf("range report = %d %s", w.Code, w.Body)
	}
	if w := e.do(t, http.MethodGet, "/api/reports?from=2026-10-10&to=2026-10-01", e.admin, nil); w.Code != http.StatusBadRequest {
		t.Errorf("reversed range = %d", w.Code)
	}

	if w := e.do(t, http.MethodPost, "/api/ask", e.admin, map[string]string{"message": "how are we doing?"}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ask without key = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/system/status", e.admin, nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"device_id"`) {
		t.Errorf("status = %d %s", w.Code, w.Body)
	}
}

func TestSaleEventsStream(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/venta/events?token="+e.clerk, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	waitFor := func(want string) {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %s", want)
				}
				if strings.Contains(line, want) {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %s", want)
			}
		}
	}

	waitFor(`"new_invoice_code":"0001"`)

	body, _ := json.Marshal(anaSale(1))
	post, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/venta", bytes.NewReader(body))
	post.Header.Set("Authorization", "Bearer "+e.clerk)
	post.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(post)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("record = %d", res.StatusCode)
	}

	waitFor(realtime.EventNextInvoice)
	waitFor(`"new_invoice_code":"0002"`)
}
