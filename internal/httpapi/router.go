package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every route and wraps them in the standard middleware chain.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	// tag tokens may contain "/" or "..", so paths are matched as sent
	r.SkipClean(true)

	fh := FormsHandler{Sessions: d.Sessions, Hub: d.Hub, Metrics: d.Metrics, Log: d.Log}
	ph := PageHandler{Sessions: d.Sessions, Config: d.config}

	// Page
	r.HandleFunc("/", fh.New).Methods(http.MethodGet)
	r.HandleFunc("/forms/{id}", ph.Form).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(staticHandler()).Methods(http.MethodGet, http.MethodHead)

	// Forms API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/forms", fh.Create).Methods(http.MethodPost)
	api.HandleFunc("/forms/{id}", fh.Get).Methods(http.MethodGet)
	api.HandleFunc("/forms/{id}/tags/{field}", fh.ConfirmTag).Methods(http.MethodPost)
	api.HandleFunc("/forms/{id}/tags/{field}/{token:.+}", fh.RemoveTag).Methods(http.MethodDelete)
	api.HandleFunc("/forms/{id}/submit", fh.Submit).Methods(http.MethodPost)
	api.HandleFunc("/forms/{id}/reset", fh.Reset).Methods(http.MethodPost)

	// Secrets
	sh := SecretsHandler{CfgVal: d.CfgVal}
	api.HandleFunc("/secrets/webhook", sh.SetWebhookToken).Methods(http.MethodPost)
	api.HandleFunc("/secrets/webhook", sh.DeleteWebhookToken).Methods(http.MethodDelete)

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	r.HandleFunc("/config", ch.Get).Methods(http.MethodGet)
	r.HandleFunc("/config", ch.Put).Methods(http.MethodPut)
	r.HandleFunc("/config/path", ch.Path).Methods(http.MethodGet)
	r.HandleFunc("/config/validate", ch.Validate).Methods(http.MethodGet)

	// Ledger
	subh := SubmissionsHandler{DB: d.DB}
	r.HandleFunc("/submissions", subh.List).Methods(http.MethodGet)
	r.HandleFunc("/submissions/{id}", subh.Get).Methods(http.MethodGet)
	dbh := DBHandler{DB: d.DB}
	r.HandleFunc("/db/checkpoint", dbh.Checkpoint).Methods(http.MethodPost)

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	r.HandleFunc("/events", eh.ServeSSE).Methods(http.MethodGet)

	hh := HealthHandler{Sessions: d.Sessions, Hub: d.Hub}
	r.HandleFunc("/health", hh.Health).Methods(http.MethodGet)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	allowed := func() []string { return d.config().App.AllowedOrigins }
	return Chain(r, RequestID, Recover(d.Log), AccessLog(d.Log), Cors(allowed), SameOrigin(allowed), SecurityHeaders)
}
