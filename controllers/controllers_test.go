package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
	"github.com/Kobaiko/carbculator/services"
)

func init() { gin.SetMode(gin.TestMode) }

var (
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeVision struct {
	res   *services.MealAnalysis
	err   error
	calls int
}

func (f *fakeVision) AnalyzeImage(context.Context, []byte, string, string) (*services.MealAnalysis, error) {
	f.calls++
	return f.res, f.err
}

type fakeEntries struct {
	created []services.FoodEntryInput
}

func (f *fakeEntries) Preview(_ context.Context, userID uint, in services.FoodEntryInput) (*models.FoodEntry, []nutrition.Warning, error) {
	return &models.FoodEntry{UserID: userID, Name: in.Name, MealType: in.MealType}, nil, nil
}

func (f *fakeEntries) Create(_ context.Context, userID uint, in services.FoodEntryInput) (*models.FoodEntry, []nutrition.Warning, error) {
	f.created = append(f.created, in)
	e := &models.FoodEntry{UserID: userID, Name: in.Name, Calories: in.Calories, Source: in.Source}
	e.ID = 31
	return e, nil, nil
}

func salad() *services.MealAnalysis {
	return &services.MealAnalysis{FoodName: "Greek salad", Calories: 320, Protein: 9, Carbs: 14, Fat: 25, Confidence: "high"}
}

func analysisRouter(v *fakeVision, fe *fakeEntries) *gin.Engine {
	ac := NewAnalysisController(services.NewAnalysisService(v, fe, quietLogger()))
	r := gin.New()
	r.POST("/analysis", func(c *gin.Context) { c.Set("userID", uint(4)) }, ac.Analyze)
	return r
}

func multipartBody(t *testing.T, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "meal.jpg")
	require.NoError(t, err)
	_, err = fw.Write(image)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load entry: %w", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: calories must be >= 0", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrInvalidResetCode, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
		{services.ErrUnsupportedImage, http.StatusUnsupportedMediaType},
		{services.ErrNotFood, http.StatusUnprocessableEntity},
		{services.ErrNoFoodDetected, http.StatusUnprocessableEntity},
		{services.ErrVisionUnavailable, http.StatusBadGateway},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	logrus.SetOutput(io.Discard)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { respondError(c, errors.New("pq: password authentication failed")) })
	r.GET("/missing", func(c *gin.Context) { respondError(c, services.ErrNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}

func TestIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{
		"/things/12":  http.StatusOK,
		"/things/0":   http.StatusBadRequest,
		"/things/abc": http.StatusBadRequest,
		"/things/-3":  http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}

func TestAnalyzeMultipartPreview(t *testing.T) {
	v, fe := &fakeVision{res: salad()}, &fakeEntries{}
	body, ct := multipartBody(t, jpegBytes, map[string]string{"meal_type": "lunch"})

	req := httptest.NewRequest(http.MethodPost, "/analysis", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	analysisRouter(v, fe).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.AnalyzeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Greek salad", res.Analysis.FoodName)
	assert.Nil(t, res.Entry)
	assert.Empty(t, fe.created)
	assert.Equal(t, 1, v.calls)
}

func TestAnalyzeJSONSave(t *testing.T) {
	v, fe := &fakeVision{res: salad()}, &fakeEntries{}
	payload, _ := json.Marshal(gin.H{
		"image_base64": "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes),
		"meal_type":    "dinner",
		"save":         true,
	})

	req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	analysisRouter(v, fe).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, fe.created, 1)
	assert.Equal(t, "dinner", fe.created[0].MealType)
	assert.Equal(t, models.SourceAI, fe.created[0].Source)

	var res services.AnalyzeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Entry)
	assert.Equal(t, uint(31), res.Entry.ID)
	assert.Equal(t, uint(4), res.Entry.UserID)
}

func TestAnalyzeErrors(t *testing.T) {
	jsonReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/analysis", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}
	formReq := func(image []byte, fields map[string]string) *http.Request {
		body, ct := multipartBody(t, image, fields)
		req := httptest.NewRequest(http.MethodPost, "/analysis", body)
		req.Header.Set("Content-Type", ct)
		return req
	}
	b64 := func(b []byte) string {
		return `{"image_base64":"` + base64.StdEncoding.EncodeToString(b) + `"}`
	}

	tests := []struct {
		name   string
		vision *fakeVision
		req    *http.Request
		want   int
	}{
		{"malformed json", &fakeVision{res: salad()}, jsonReq(`{"image_base64":`), http.StatusBadRequest},
		{"missing image", &fakeVision{res: salad()}, jsonReq(`{}`), http.StatusBadRequest},
		{"bad base64", &fakeVision{res: salad()}, jsonReq(`{"image_base64":"%%%"}`), http.StatusBadRequest},
		{"not an image", &fakeVision{res: salad()}, jsonReq(b64([]byte("just some plain text, not a photo"))), http.StatusUnsupportedMediaType},
		{"bad save flag", &fakeVision{res: salad()}, formReq(jpegBytes, map[string]string{"save": "maybe"}), http.StatusBadRequest},
		{"bad eaten_at", &fakeVision{res: salad()}, formReq(jpegBytes, map[string]string{"eaten_at": "yesterday"}), http.StatusBadRequest},
		{"oversized upload", &fakeVision{res: salad()}, formReq(make([]byte, services.MaxImageBytes+1), nil), http.StatusRequestEntityTooLarge},
		{"no food", &fakeVision{err: services.ErrNoFoodDetected}, jsonReq(b64(jpegBytes)), http.StatusUnprocessableEntity},
		{"vision down", &fakeVision{err: fmt.Errorf("%w: status 503", services.ErrVisionUnavailable)}, jsonReq(b64(jpegBytes)), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			analysisRouter(tt.vision, &fakeEntries{}).ServeHTTP(w, tt.req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

type sentPush struct {
	userID      uint
	title, body string
}

type fakeNotifier struct{ sent []sentPush }

func (f *fakeNotifier) PushToUser(_ context.Context, userID uint, title, body string, _ map[string]string) {
	f.sent = append(f.sent, sentPush{userID, title, body})
}

type fakeBroadcaster struct{ kinds []string }

func (f *fakeBroadcaster) Broadcast(_ uint, kind string, _ any) { f.kinds = append(f.kinds, kind) }

func TestDevPushTest(t *testing.T) {
	push, rt := &fakeNotifier{}, &fakeBroadcaster{}
	dc := NewDevController(push, rt)
	r := gin.New()
	r.POST("/dev/push", func(c *gin.Context) { c.Set("userID", uint(8)) }, dc.PushTest)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/dev/push", bytes.NewBufferString(`{"body":"hello"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, push.sent, 1)
	assert.Equal(t, sentPush{8, "Test alert", "hello"}, push.sent[0])
	assert.Equal(t, []string{"dev.push"}, rt.kinds)
}

func TestHealth(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/health", NewHealthController(db).Health)

	mock.ExpectPing()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"unreachable"`)

	assert.NoError(t, mock.ExpectationsWereMet())
}
