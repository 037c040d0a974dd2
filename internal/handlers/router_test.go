package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/backend"
	"github.com/iqac-kare/feedback-dashboard/internal/cache"
	"github.com/iqac-kare/feedback-dashboard/internal/events"
	"github.com/iqac-kare/feedback-dashboard/internal/handoff"
	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/repositories"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
	"github.com/iqac-kare/feedback-dashboard/internal/validator"
	"github.com/iqac-kare/feedback-dashboard/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeedback = `{
	"success": true,
	"data": {
		"staff_id": "S1",
		"course_code": "CS101",
		"course_name": "Programming",
		"total_responses": 4,
		"analysis": {
			"teaching": {
				"section_name": "TEACHING EFFECTIVENESS",
				"questions": {
					"qn1": {
						"question": "Explains clearly",
						"total_responses": 4,
						"options": [
							{"text": "Poor", "value": 1, "count": 0},
							{"text": "Average", "value": 2, "count": 0},
							{"text": "Good", "value": 3, "count": 4}
						]
					}
				}
			}
		}
	}
}`

// fakeBackend serves the analysis backend endpoints the dashboard calls
func fakeBackend(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()

	respond := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	mux.HandleFunc("GET /api/analysis/degrees", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `["B.E"]`)
	})
	mux.HandleFunc("GET /api/analysis/departments", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `["CSE"]`)
	})
	mux.HandleFunc("GET /api/analysis/batches", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `["2022"]`)
	})
	mux.HandleFunc("GET /api/analysis/courses", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `[{"code":"CS101","name":"Programming"}]`)
	})
	mux.HandleFunc("GET /api/analysis/faculty", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `[{"staff_id":"S1","faculty_name":"Jane Doe","course_code":"CS101"}]`)
	})
	mux.HandleFunc("GET /api/analysis/feedback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("staffId") != "S1" {
			respond(w, http.StatusNotFound, `{"success":false,"error":"No feedback found"}`)
			return
		}
		respond(w, http.StatusOK, sampleFeedback)
	})
	mux.HandleFunc("GET /api/analysis/comments", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true,"data":{"has_comments":true,"total_comments":3}}`)
	})
	mux.HandleFunc("GET /api/questions/with-options", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `[{"id":1,"section_type":"TEACHING EFFECTIVENESS","question":"Explains clearly","column_name":"qn1"}]`)
	})
	mux.HandleFunc("POST /api/questions", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true,"data":[{"id":5}]}`)
	})
	mux.HandleFunc("POST /api/questions/options", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true}`)
	})
	mux.HandleFunc("DELETE /api/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true}`)
	})
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true,"count":2,"message":"Uploaded 2 records"}`)
	})
	mux.HandleFunc("POST /api/reports/generate-department-report", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", models.SpreadsheetContentType)
		_, _ = w.Write([]byte("xlsx-bytes"))
	})
	mux.HandleFunc("POST /api/reports/generate-department-report-all-batches", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true}`)
	})
	return mux
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(fakeBackend(t))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := backend.NewClient(srv.URL, 5*time.Second, logger)
	require.NoError(t, err)

	serviceManager := services.NewServiceManager(services.ServiceDeps{
		API:             client,
		Handoff:         handoff.NewStore(cache.NewMemoryCache(), time.Hour),
		ActivityRepo:    repositories.NewNoopActivityRepository(),
		EventPublisher:  events.NewMockEventPublisher(logger),
		Validator:       validator.New(),
		Logger:          logger,
		BulkConcurrency: 2,
	})

	tmpl, err := web.Templates()
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(SessionMiddleware(false))
	router.Use(utils.ContextLogger(utils.NewSlogLogger(logger)))
	NewHandlerManager(serviceManager, utils.NewSlogLogger(logger)).SetupRoutes(router)
	return router
}

// browser replays the session cookie across requests
type browser struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		b.cookies = cookies
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAnalysisScreens_SelectAndResults(t *testing.T) {
	b := &browser{t: t, router: newTestRouter(t)}

	// Each post changes one level, as the dropdowns do
	steps := []url.Values{
		{"degree": {"B.E"}},
		{"degree": {"B.E"}, "dept": {"CSE"}},
		{"degree": {"B.E"}, "dept": {"CSE"}, "batch": {"2022"}},
		{"degree": {"B.E"}, "dept": {"CSE"}, "batch": {"2022"}, "course": {"CS101"}},
	}
	for _, form := range steps {
		w := b.postForm("/analysis/filter", form)
		require.Equal(t, http.StatusSeeOther, w.Code)
	}

	w := b.get("/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jane Doe")
	assert.Contains(t, w.Body.String(), "JD")

	w = b.postForm("/analysis/select", url.Values{"staff_id": {"S1"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/analysis/results", w.Header().Get("Location"))

	w = b.get("/analysis/results")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Overall score: 100%")
	assert.Contains(t, w.Body.String(), "3 student comments")

	// A reload keeps showing the consumed analysis
	w = b.get("/analysis/results?tab=details")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "100.0%")

	w = b.get("/analysis/results/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "feedback_scores_S1.xlsx")

	w = b.postForm("/analysis/results/back", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = b.get("/analysis/results")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/analysis", w.Header().Get("Location"))

	// Filter screen state survives the round trip
	w = b.get("/analysis")
	assert.Contains(t, w.Body.String(), "Jane Doe")
}

func TestAnalysisScreens_ResultsWithoutSelection(t *testing.T) {
	b := &browser{t: t, router: newTestRouter(t)}

	w := b.get("/analysis/results")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/analysis", w.Header().Get("Location"))
}

func TestAnalysisScreens_ResetClearsSelection(t *testing.T) {
	b := &browser{t: t, router: newTestRouter(t)}

	b.postForm("/analysis/filter", url.Values{"degree": {"B.E"}})
	b.postForm("/analysis/filter", url.Values{"degree": {"B.E"}, "dept": {"CSE"}})
	w := b.get("/analysis")
	require.Contains(t, w.Body.String(), `value="CSE" selected`)

	w = b.postForm("/analysis/reset", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/analysis", w.Header().Get("Location"))

	w = b.get("/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `value="B.E" selected`)
	assert.NotContains(t, w.Body.String(), `value="CSE" selected`)
}

func TestAnalysisScreens_ChangingDegreeClearsLowerLevels(t *testing.T) {
	b := &browser{t: t, router: newTestRouter(t)}

	b.postForm("/analysis/filter", url.Values{"degree": {"B.E"}})
	b.postForm("/analysis/filter", url.Values{"degree": {"B.E"}, "dept": {"CSE"}})
	b.postForm("/analysis/filter", url.Values{"degree": {"M.E"}, "dept": {"CSE"}})

	w := b.get("/analysis")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `value="CSE" selected`)
}

func TestAPI_GetAnalysis(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name         string
		query        string
		expectedCode int
		contains     string
	}{
		{
			name:         "loads and scores",
			query:        "degree=B.E&dept=CSE&batch=2022&course=CS101&staffId=S1",
			expectedCode: http.StatusOK,
			contains:     `"overall":100`,
		},
		{
			name:         "backend error message is surfaced",
			query:        "degree=B.E&dept=CSE&batch=2022&course=CS101&staffId=S9",
			expectedCode: http.StatusNotFound,
			contains:     "No feedback found",
		},
		{
			name:         "missing staff id",
			query:        "degree=B.E&dept=CSE&batch=2022&course=CS101",
			expectedCode: http.StatusBadRequest,
			contains:     "Validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?"+tt.query, nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestAPI_FilterOptions(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/filters/options?degree=B.E", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data models.FilterOptions `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"B.E"}, resp.Data.Degrees)
	assert.Equal(t, []string{"CSE"}, resp.Data.Departments)
	assert.Empty(t, resp.Data.Batches)
}

func TestAPI_ComputeScores(t *testing.T) {
	router := newTestRouter(t)

	var envelope struct {
		Data models.AnalysisResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(sampleFeedback), &envelope))

	w := postJSON(router, "/api/v1/scores", envelope.Data)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"overall":100`)
}

func TestAPI_Questions(t *testing.T) {
	router := newTestRouter(t)

	t.Run("create", func(t *testing.T) {
		w := postJSON(router, "/api/v1/questions", models.QuestionForm{
			SectionType: models.SectionAssessmentFeedback,
			Question:    "Returns graded work promptly",
			ColumnName:  "qn7",
			Options:     []models.Option{{OptionLabel: "A", OptionText: "Yes"}},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":5`)
	})

	t.Run("create with bad column name", func(t *testing.T) {
		w := postJSON(router, "/api/v1/questions", models.QuestionForm{
			SectionType: models.SectionAssessmentFeedback,
			Question:    "Returns graded work promptly",
			ColumnName:  "column7",
			Options:     []models.Option{{OptionLabel: "A", OptionText: "Yes"}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "column_name")
	})

	t.Run("delete requires confirmation", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/questions/1", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/questions/1?confirm=true", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown question", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/questions/99", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestQuestionsScreen(t *testing.T) {
	b := &browser{t: t, router: newTestRouter(t)}

	t.Run("add option relabels", func(t *testing.T) {
		w := b.postForm("/questions/options/add", url.Values{"option_text": {"Poor"}})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<strong>B</strong>")
	})

	t.Run("validation errors shown inline", func(t *testing.T) {
		w := b.postForm("/questions/save", url.Values{
			"section_type": {string(models.SectionTeachingEffectiveness)},
			"question":     {"Explains clearly"},
			"column_name":  {"bad"},
			"option_text":  {"Poor"},
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Please correct the highlighted fields")
	})

	t.Run("saved question flashes", func(t *testing.T) {
		w := b.postForm("/questions/save", url.Values{
			"section_type": {string(models.SectionTeachingEffectiveness)},
			"question":     {"Explains clearly"},
			"column_name":  {"qn2"},
			"option_text":  {"Poor", "Good"},
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Question created successfully")
	})
}

func TestAPI_Upload(t *testing.T) {
	router := newTestRouter(t)

	upload := func(filename, content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = io.WriteString(part, content)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := upload("feedback.csv", "staff_id,qn1\nS1,3\nS2,2\n")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Uploaded 2 records")

	w = upload("feedback.txt", "hello")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select a valid file")
}

func TestAPI_Reports(t *testing.T) {
	router := newTestRouter(t)

	t.Run("department report streams spreadsheet", func(t *testing.T) {
		w := postJSON(router, "/api/v1/reports", map[string]interface{}{
			"kind":    "department",
			"filters": map[string]string{"degree": "B.E", "dept": "CSE", "batch": "2022"},
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.SpreadsheetContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "department_report_B.E_CSE_2022.xlsx")
		assert.Equal(t, "xlsx-bytes", w.Body.String())
	})

	t.Run("missing filters", func(t *testing.T) {
		w := postJSON(router, "/api/v1/reports", map[string]interface{}{
			"kind":    "department",
			"filters": map[string]string{"degree": "B.E"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non spreadsheet reply", func(t *testing.T) {
		w := postJSON(router, "/api/v1/reports", map[string]interface{}{
			"kind":    "department_all_batches",
			"filters": map[string]string{"degree": "B.E", "dept": "CSE"},
		})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "expected Excel file")
	})
}
