package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-pos-terminal/internal/app"
	"go-pos-terminal/internal/auth"
	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	kv     *storage.MemoryKV
	token  string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := storage.NewMemoryKV()
	now := func() time.Time { return time.Date(2024, 3, 15, 14, 5, 0, 0, time.UTC) }
	a := app.New(kv, storage.NewMemoryBlobs(), app.Options{SeedDefaults: true, Terminal: "POS-TEST", Now: now})
	require.NoError(t, a.Load(context.Background()))

	m, err := auth.NewManager("secret", "1234", "", "POS-TEST")
	require.NoError(t, err)
	token, _, err := m.Login("1234")
	require.NoError(t, err)

	usage := func(context.Context) (*database.StorageUsage, error) {
		return &database.StorageUsage{Entries: 3}, nil
	}
	r := gin.New()
	NewServer(a, m, Options{Usage: usage, MaxUploadBytes: 1 << 20}).Register(r)
	return &testEnv{router: r, kv: kv, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndLogin(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/login", gin.H{"pin": "0000"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/login", gin.H{}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/login", gin.H{"pin": "1234"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, auth.RoleAdmin, resp.Role)
}

func TestSystemStatus(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/system/status", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status  app.Status             `json:"status"`
		Storage *database.StorageUsage `json:"storage"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "POS-TEST", resp.Status.Terminal)
	assert.Equal(t, 10, resp.Status.Products)
	require.NotNil(t, resp.Storage)
	assert.Equal(t, int64(3), resp.Storage.Entries)
}

func TestProducts(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/products", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var products []map[string]interface{}
	decode(t, w, &products)
	assert.Len(t, products, 10)

	w = e.do(t, http.MethodGet, "/api/products?q=taro", nil, false)
	decode(t, w, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "Taro MilkTea", products[0]["name"])

	w = e.do(t, http.MethodGet, "/api/products/abc", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/products/99", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/api/products/1/addons", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var addons []map[string]interface{}
	decode(t, w, &addons)
	assert.Len(t, addons, 3)
}

func TestAdminRoutesNeedToken(t *testing.T) {
	e := newEnv(t)
	product := gin.H{"name": "Matcha MilkTea", "price": 99, "category": "MilkTea Series"}

	w := e.do(t, http.MethodPost, "/api/products", product, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/api/products", product, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	decode(t, w, &created)
	assert.Equal(t, float64(11), created["id"])
	assert.Equal(t, true, created["active"])

	w = e.do(t, http.MethodPost, "/api/products", gin.H{"name": "Free", "price": 0, "category": "X"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPatch, "/api/products/11/availability", gin.H{"inStock": false}, true)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &created)
	assert.Equal(t, false, created["inStock"])

	w = e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 11}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code, "out of stock")

	w = e.do(t, http.MethodDelete, "/api/products/11", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodDelete, "/api/products/11", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductUpload(t *testing.T) {
	e := newEnv(t)

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var pic bytes.Buffer
	require.NoError(t, png.Encode(&pic, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Ube MilkTea"))
	require.NoError(t, mw.WriteField("price", "105"))
	require.NoError(t, mw.WriteField("category", "MilkTea Series"))
	fw, err := mw.CreateFormFile("file", "ube.png")
	require.NoError(t, err)
	_, err = fw.Write(pic.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	decode(t, w, &created)
	assert.True(t, strings.HasPrefix(created["image"].(string), "data:image/jpeg;base64,"))
}

func TestCheckoutFlow(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/checkout", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	w = e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 1, "addons": []gin.H{{"id": "pearls", "quantity": 1}}}, false)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 2}, false)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPatch, "/api/cart/items/1", gin.H{"delta": 1}, false)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Subtotal  float64 `json:"subtotal"`
		ItemCount int     `json:"itemCount"`
	}
	decode(t, w, &view)
	assert.Equal(t, float64(294), view.Subtotal)
	assert.Equal(t, 3, view.ItemCount)

	w = e.do(t, http.MethodDelete, "/api/cart/items/7", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/api/checkout", gin.H{"orderType": "dine-in", "paymentMethod": "bitcoin"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/checkout", gin.H{"orderType": "take-out", "paymentMethod": "gcash"}, false)
	require.Equal(t, http.StatusCreated, w.Code)
	var receipt struct {
		Sale struct {
			ID            string  `json:"id"`
			Total         float64 `json:"total"`
			OrderType     string  `json:"orderType"`
			PaymentMethod string  `json:"paymentMethod"`
		} `json:"sale"`
	}
	decode(t, w, &receipt)
	assert.Equal(t, "#01", receipt.Sale.ID)
	assert.Equal(t, float64(294), receipt.Sale.Total)
	assert.Equal(t, "Take Out", receipt.Sale.OrderType)
	assert.Equal(t, "GCash", receipt.Sale.PaymentMethod)

	w = e.do(t, http.MethodGet, "/api/cart", nil, false)
	decode(t, w, &view)
	assert.Equal(t, 0, view.ItemCount)

	w = e.do(t, http.MethodGet, "/api/sales/%2301", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPut, "/api/sales/%2301", gin.H{"ops": []gin.H{{"op": "payment", "value": "cash"}}}, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paymentMethod":"Cash"`)

	w = e.do(t, http.MethodPost, "/api/sales/%2301/print", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = e.do(t, http.MethodGet, "/api/notifications", nil, false)
	var notes struct {
		Unread int `json:"unread"`
	}
	decode(t, w, &notes)
	assert.Equal(t, 1, notes.Unread, "an edit rewrites the sale's notification")

	w = e.do(t, http.MethodPost, "/api/notifications/read", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/sales?range=today", nil, false)
	var list []map[string]interface{}
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = e.do(t, http.MethodGet, "/api/sales?range=custom&start=bad", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodDelete, "/api/sales/%2301", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/sales/%2301", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReopenNeedsEmptyCart(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/cart/reopen", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 1}, false)
	e.do(t, http.MethodPost, "/api/checkout", nil, false)
	e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 2}, false)

	w = e.do(t, http.MethodPost, "/api/cart/reopen", nil, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	e.do(t, http.MethodDelete, "/api/cart", nil, false)
	w = e.do(t, http.MethodPost, "/api/cart/reopen", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reopened":"#01"`)
}

func TestReportsAndExport(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 2}, false)
	e.do(t, http.MethodPost, "/api/checkout", nil, false)

	w := e.do(t, http.MethodGet, "/api/reports/dashboard?range=week", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	var dash struct {
		Totals struct {
			Revenue    float64 `json:"revenue"`
			OrderCount int     `json:"orderCount"`
		} `json:"totals"`
	}
	decode(t, w, &dash)
	assert.Equal(t, float64(95), dash.Totals.Revenue)
	assert.Equal(t, 1, dash.Totals.OrderCount)

	w = e.do(t, http.MethodGet, "/api/reports/dashboard?range=fortnight", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/reports/export?format=csv", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sales_report_2024-03-15.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Order ID,Date & Time,Items,Quantity,Total"))

	w = e.do(t, http.MethodGet, "/api/reports/export?format=pdf&range=today", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = e.do(t, http.MethodGet, "/api/reports/export?format=docx", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPut, "/api/settings", gin.H{"darkMode": true, "thermalPrinterDevice": gin.H{"name": "PT-210"}}, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"darkMode":true`)
	assert.Contains(t, w.Body.String(), `"PT-210"`)

	w = e.do(t, http.MethodPut, "/api/settings", gin.H{"thermalPrinterDevice": "PT-210"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, "/api/settings", gin.H{"forgetPrinter": true}, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "PT-210")
}

func TestBackupRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 1}, false)
	e.do(t, http.MethodPost, "/api/checkout", nil, false)

	w := e.do(t, http.MethodGet, "/api/backup", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "POS_Backup_2024-03-15.json")
	doc := w.Body.Bytes()

	w = e.do(t, http.MethodPost, "/api/system/reset", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/sales", nil, false)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	req := httptest.NewRequest(http.MethodPost, "/api/backup", bytes.NewReader(doc))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	w = e.do(t, http.MethodGet, "/api/sales/%2301", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/backup", strings.NewReader(`{"version":"1.0"}`))
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = e.do(t, http.MethodDelete, "/api/sales", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStorageFullIs507(t *testing.T) {
	e := newEnv(t)
	e.kv.FailWrites = errors.New("quota exceeded")

	w := e.do(t, http.MethodPost, "/api/categories", gin.H{"name": "Frappe"}, true)
	assert.Equal(t, http.StatusInsufficientStorage, w.Code)
	assert.Contains(t, w.Body.String(), "storage may be full")

	e.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": 1}, false)
	w = e.do(t, http.MethodPost, "/api/checkout", nil, false)
	assert.Equal(t, http.StatusInsufficientStorage, w.Code)

	e.kv.FailWrites = nil
	w = e.do(t, http.MethodGet, "/api/cart", nil, false)
	assert.Contains(t, w.Body.String(), `"itemCount":1`, "a failed checkout keeps the cart")
}

func TestCategories(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/categories", gin.H{"name": "Frappe"}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	w = e.do(t, http.MethodPost, "/api/categories", gin.H{"name": "frappe"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, "/api/categories", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Frappe")
}

func TestAskWithoutAgent(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/ask", gin.H{"message": "best seller?"}, true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInsufficientStorage, statusFor(&storage.WriteError{Key: "sales", Err: errors.New("full")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
