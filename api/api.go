package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/fundraiser-z-sandbox/ledger"
	"go.vocdoni.io/dvote/log"
)

// APIConfig type represents the configuration for the API HTTP server.
// It includes the host, port and an existing ledger instance.
type APIConfig struct {
	Host   string
	Port   int
	Ledger *ledger.Ledger
}

// API type represents the API HTTP server exposing the fundraising ledger.
type API struct {
	router *chi.Mux
	ledger *ledger.Ledger
}

// New creates a new API instance with the given configuration.
// It also initializes the router and starts the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Ledger == nil {
		return nil, fmt.Errorf("missing ledger instance")
	}
	a := &API{
		ledger: conf.Ledger,
	}

	// Initialize router
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", CampaignsEndpoint, "method", "POST")
	a.router.Post(CampaignsEndpoint, a.createCampaign)
	log.Infow("register handler", "endpoint", CampaignsEndpoint, "method", "GET")
	a.router.Get(CampaignsEndpoint, a.listCampaigns)
	log.Infow("register handler", "endpoint", ActiveCampaignsEndpoint, "method", "GET")
	a.router.Get(ActiveCampaignsEndpoint, a.listActiveCampaigns)
	log.Infow("register handler", "endpoint", CampaignEndpoint, "method", "GET")
	a.router.Get(CampaignEndpoint, a.campaignInfo)
	log.Infow("register handler", "endpoint", CampaignProgressEndpoint, "method", "GET")
	a.router.Get(CampaignProgressEndpoint, a.campaignProgress)
	log.Infow("register handler", "endpoint", CampaignBalanceEndpoint, "method", "GET")
	a.router.Get(CampaignBalanceEndpoint, a.campaignBalance)
	log.Infow("register handler", "endpoint", CampaignDonorsEndpoint, "method", "GET")
	a.router.Get(CampaignDonorsEndpoint, a.campaignDonors)
	log.Infow("register handler", "endpoint", CampaignEndEndpoint, "method", "POST")
	a.router.Post(CampaignEndEndpoint, a.endCampaign)
	log.Infow("register handler", "endpoint", CampaignWithdrawEndpoint, "method", "POST")
	a.router.Post(CampaignWithdrawEndpoint, a.withdrawFunds)
	log.Infow("register handler", "endpoint", CampaignTotalEndpoint, "method", "GET")
	a.router.Get(CampaignTotalEndpoint, a.campaignTotalRaised)
	log.Infow("register handler", "endpoint", DonationsEndpoint, "method", "POST")
	a.router.Post(DonationsEndpoint, a.newDonation)
	log.Infow("register handler", "endpoint", DonationEndpoint, "method", "GET")
	a.router.Get(DonationEndpoint, a.donationAmount)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))
	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrResourceNotFound.Write(w)
	})

	// Register the API handlers
	a.registerHandlers()
}
