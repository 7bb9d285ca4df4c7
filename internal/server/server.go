package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"todaybox/internal/calendar"
	"todaybox/internal/storage"
	"todaybox/internal/tray"
	"todaybox/internal/view"
)

// Config for the HTTP API handler.
type Config struct {
	Store        storage.Store
	BasePath     string
	TrayMaxItems int
	Now          func() time.Time
	Logger       *log.Logger
}

type api struct {
	store        storage.Store
	now          func() time.Time
	trayMaxItems int
}

// huma reads this process-wide setting when schemas are generated; list fields
// are always encoded as arrays, never null.
func init() {
	huma.DefaultArrayNullable = false
}

// New returns an HTTP handler exposing the TodayBox API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "http: ", log.LstdFlags)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(cfg.Logger))

	hcfg := huma.DefaultConfig("TodayBox API", "1.0.0")
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = ""
	humaAPI := humachi.New(router, hcfg)
	group := huma.NewGroup(humaAPI, basePath)

	a := &api{store: cfg.Store, now: cfg.Now, trayMaxItems: cfg.TrayMaxItems}
	registerHealth(group)
	registerTasks(group, a)
	registerToday(group, a)

	return router, nil
}

func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Printf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond))
		})
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string
	}, error) {
		return &struct {
			Body map[string]string
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type idPath struct {
	ID string `path:"id"`
}

type taskOutput struct {
	Body TaskResponse
}

func registerTasks(hapi huma.API, a *api) {
	huma.Register(hapi, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks, open first",
	}, func(ctx context.Context, input *struct {
		Filter string `query:"filter" enum:"all,today" default:"all"`
		Sort   string `query:"sort" enum:"created,due" default:"created"`
	}) (*struct {
		Body TaskListResponse
	}, error) {
		filter, err := view.ParseFilter(input.Filter)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		sortMode, err := view.ParseSort(input.Sort)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		list := view.BuildList(a.store.Tasks(), view.Options{Filter: filter, Sort: sortMode})
		return &struct {
			Body TaskListResponse
		}{Body: TaskListResponse{
			Incomplete: toTaskResponses(list.Incomplete),
			Completed:  toTaskResponses(list.Completed),
		}}, nil
	})

	huma.Register(hapi, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*taskOutput, error) {
		t, ok := a.store.Get(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("task not found")
		}
		return &taskOutput{Body: toTaskResponse(t)}, nil
	})

	huma.Register(hapi, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest
	}) (*taskOutput, error) {
		if strings.TrimSpace(input.Body.Title) == "" {
			return nil, huma.Error400BadRequest("title is required")
		}
		due, err := parseDueDate(input.Body.DueDate)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		if err := checkRule(input.Body.Recurrence); err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		t, ok := a.store.Create(storage.NewTask{
			Title:      input.Body.Title,
			DueDate:    due,
			Recurrence: input.Body.Recurrence,
			IsToday:    input.Body.IsToday,
			Memo:       input.Body.Memo,
		})
		if !ok {
			return nil, huma.Error400BadRequest("title is required")
		}
		return &taskOutput{Body: toTaskResponse(t)}, nil
	})

	registerNoContent(hapi, "toggle-completion", http.MethodPost, "/tasks/{id}/toggle-completion", "Toggle completion",
		func(ctx context.Context, input *idPath) error {
			a.store.ToggleCompletion(input.ID)
			return nil
		})
	registerNoContent(hapi, "toggle-today", http.MethodPost, "/tasks/{id}/toggle-today", "Toggle today pin",
		func(ctx context.Context, input *idPath) error {
			a.store.ToggleToday(input.ID)
			return nil
		})
	registerNoContent(hapi, "set-due-date", http.MethodPut, "/tasks/{id}/due-date", "Set or clear due date",
		func(ctx context.Context, input *struct {
			ID   string `path:"id"`
			Body DueDateRequest
		}) error {
			due, err := parseDueDate(input.Body.DueDate)
			if err != nil {
				return huma.Error400BadRequest(err.Error())
			}
			a.store.SetDueDate(input.ID, due)
			return nil
		})
	registerNoContent(hapi, "set-recurrence", http.MethodPut, "/tasks/{id}/recurrence", "Set or clear recurrence",
		func(ctx context.Context, input *struct {
			ID   string `path:"id"`
			Body RecurrenceRequest
		}) error {
			if err := checkRule(input.Body.Recurrence); err != nil {
				return huma.Error400BadRequest(err.Error())
			}
			a.store.SetRecurrence(input.ID, input.Body.Recurrence)
			return nil
		})
	registerNoContent(hapi, "set-memo", http.MethodPut, "/tasks/{id}/memo", "Set or clear memo",
		func(ctx context.Context, input *struct {
			ID   string `path:"id"`
			Body MemoRequest
		}) error {
			a.store.SetMemo(input.ID, input.Body.Memo)
			return nil
		})
	registerNoContent(hapi, "rename-task", http.MethodPut, "/tasks/{id}/title", "Rename task",
		func(ctx context.Context, input *struct {
			ID   string `path:"id"`
			Body TitleRequest
		}) error {
			a.store.Rename(input.ID, input.Body.Title)
			return nil
		})
	registerNoContent(hapi, "delete-task", http.MethodDelete, "/tasks/{id}", "Delete task",
		func(ctx context.Context, input *idPath) error {
			a.store.Delete(input.ID)
			return nil
		})
}

// registerNoContent wires a mutation that answers 204. Unknown ids are not an error.
func registerNoContent[I any](hapi huma.API, id, method, path, summary string, fn func(context.Context, *I) error) {
	huma.Register(hapi, huma.Operation{
		OperationID:   id,
		Method:        method,
		Path:          path,
		Summary:       summary,
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *I) (*struct{}, error) {
		if err := fn(ctx, input); err != nil {
			return nil, err
		}
		return &struct{}{}, nil
	})
}

func registerToday(hapi huma.API, a *api) {
	huma.Register(hapi, huma.Operation{
		OperationID: "today",
		Method:      http.MethodGet,
		Path:        "/today",
		Summary:     "Today payload",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body view.TodayTasksPayload
	}, error) {
		return &struct {
			Body view.TodayTasksPayload
		}{Body: view.BuildTodayPayload(a.store.Tasks(), a.now())}, nil
	})

	huma.Register(hapi, huma.Operation{
		OperationID: "tray",
		Method:      http.MethodGet,
		Path:        "/tray",
		Summary:     "Tray menu model",
	}, func(ctx context.Context, input *struct {
		MaxItems int `query:"maxItems" minimum:"0"`
	}) (*struct {
		Body []TrayEntryResponse
	}, error) {
		now := a.now()
		payload := view.BuildTodayPayload(a.store.Tasks(), now)
		today := calendar.Today(now)
		maxItems := a.trayMaxItems
		if input.MaxItems > 0 {
			maxItems = input.MaxItems
		}
		entries := tray.Build(&payload, tray.Options{TodayDate: &today, MaxItems: maxItems})
		return &struct {
			Body []TrayEntryResponse
		}{Body: TrayResponses(entries)}, nil
	})
}
