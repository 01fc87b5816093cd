package server

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vankov/bgledger/internal/store"
)

type Server struct {
	store  *store.Store
	router chi.Router
	addr   string
	log    zerolog.Logger
}

func New(st *store.Store, addr string, log zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{store: st, router: r, addr: addr, log: log}
	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		// Companies and counterparts
		r.Post("/companies", s.createCompany)
		r.Get("/companies", s.listCompanies)
		r.Get("/companies/{companyID}", s.getCompany)
		r.Put("/companies/{companyID}/policies", s.updateCompanyPolicies)
		r.Post("/companies/{companyID}/counterparts", s.createCounterpart)
		r.Get("/companies/{companyID}/counterparts", s.listCounterparts)

		// Users and period windows
		r.Post("/users", s.createUser)
		r.Get("/users/{id}", s.getUser)
		r.Put("/users/{id}/periods", s.updateUserPeriods)

		// Chart of accounts
		r.Post("/companies/{companyID}/accounts", s.createAccount)
		r.Get("/companies/{companyID}/accounts", s.listAccounts)
		r.Get("/companies/{companyID}/accounts/{code}", s.getAccountByCode)
		r.Put("/companies/{companyID}/accounts/{code}/active", s.setAccountActive)

		// Journal entries
		r.Post("/companies/{companyID}/entries", s.createEntry)
		r.Get("/companies/{companyID}/entries", s.listEntries)
		r.Get("/entries/{id}", s.getEntry)
		r.Patch("/entries/{id}", s.updateEntry)
		r.Delete("/entries/{id}", s.deleteEntry)
		r.Post("/entries/{id}/post", s.postEntry)
		r.Post("/entries/{id}/reverse", s.reverseEntry)

		// Inventory
		r.Get("/companies/{companyID}/inventory/balances", s.listBalances)
		r.Get("/companies/{companyID}/inventory/{accountID}/balance", s.getBalance)
		r.Get("/companies/{companyID}/inventory/{accountID}/movements", s.listMovements)
		r.Get("/companies/{companyID}/inventory/{accountID}/average-cost", s.averageCost)
		r.Post("/companies/{companyID}/inventory/{accountID}/recompute", s.recomputeBalance)
		r.Get("/companies/{companyID}/inventory/{accountID}/corrections", s.listCorrections)
		r.Get("/companies/{companyID}/inventory/{accountID}/corrections/plan", s.planCorrections)
		r.Post("/companies/{companyID}/inventory/{accountID}/corrections/apply", s.applyCorrections)
		r.Get("/companies/{companyID}/reports/turnover", s.turnoverReport)

		// VAT returns
		r.Get("/companies/{companyID}/vat-returns", s.listVatReturns)
		r.Get("/companies/{companyID}/vat-returns/{year}/{month}", s.getVatReturn)
		r.Post("/companies/{companyID}/vat-returns/{year}/{month}/recompute", s.recomputeVatReturn)
		r.Post("/companies/{companyID}/vat-returns/{year}/{month}/submit", s.submitVatReturn)
		r.Post("/companies/{companyID}/vat-returns/{year}/{month}/approve", s.approveVatReturn)
		r.Put("/companies/{companyID}/vat-returns/{year}/{month}/coefficient", s.setVatCoefficient)
		r.Put("/companies/{companyID}/vat-returns/{year}/{month}/annual-adjustment", s.setAnnualAdjustment)
		r.Get("/companies/{companyID}/vat-returns/{year}/{month}/export/{file}", s.exportVatFile)

		// Accounting settings
		r.Get("/companies/{companyID}/settings", s.getSettings)
		r.Put("/companies/{companyID}/settings", s.updateSettings)
	})

	return s
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.addr).Msg("server listening")
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Stringer("addr", ln.Addr()).Msg("server listening")
	return http.Serve(ln, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}
