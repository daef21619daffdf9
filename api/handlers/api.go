package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicfix/complaint-api/api"
	"github.com/civicfix/complaint-api/api/scheduler"
	"github.com/civicfix/complaint-api/chat"
	"github.com/civicfix/complaint-api/config"
	"github.com/civicfix/complaint-api/databases"
	"github.com/civicfix/complaint-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router     *mux.Router
	Config     config.Config
	Cloudinary *cloudinary.Cloudinary
	Scheduler  *scheduler.Scheduler
	dbHelper   databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	secret := []byte(a.Config.JWTSecret)

	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper), Secret: secret}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	udb := databases.NewUserDatabase(a.dbHelper)
	cdb := databases.NewComplaintDatabase(a.dbHelper)
	mdb := databases.NewMessageDatabase(a.dbHelper)
	odb := databases.NewOTPDatabase(a.dbHelper)

	auth := Auth{UDB: udb, ODB: odb, Secret: secret, BaseURL: a.Config.BaseURL}
	complaint := Complaint{DB: cdb, UDB: udb, MDB: mdb, Cloudinary: a.Cloudinary}
	message := Message{DB: mdb, UDB: udb, CDB: cdb}
	cloudinaryHandler := CloudinaryHandler{}

	// the chat hub lives for the lifetime of the router; every websocket
	// connection registers with it
	hub := chat.NewHub()
	chatServer := &chat.Server{
		Gate:       chat.Gate{DB: udb, Secret: secret},
		Hub:        hub,
		Controller: chat.NewController(mdb, udb, hub),
	}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.HandleFunc("/ws/chat", chatServer.Handler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	// a stuck REST call should not hold a worker forever; the websocket route
	// stays outside this subrouter so long-lived connections are unaffected
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/send-otp", http.HandlerFunc(auth.SendOTPHandler)).Methods("POST")
	apiCreate.Handle("/auth/verify-otp", http.HandlerFunc(auth.VerifyOTPHandler)).Methods("POST")
	apiCreate.Handle("/auth/create-account", http.HandlerFunc(auth.CreateAccountHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(auth.LogoutHandler))).Methods("POST")
	apiCreate.Handle("/auth/check-auth", api.Middleware(http.HandlerFunc(auth.CheckAuthHandler))).Methods("GET")
	apiCreate.Handle("/auth/forgot-password", http.HandlerFunc(auth.ForgotPasswordHandler)).Methods("POST")
	apiCreate.Handle("/auth/reset-password", http.HandlerFunc(auth.ResetPasswordHandler)).Methods("POST")

	apiCreate.Handle("/complaint", api.Middleware(http.HandlerFunc(complaint.CreateComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints/mine", api.Middleware(http.HandlerFunc(complaint.MyComplaintsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/mine/stats", api.Middleware(http.HandlerFunc(complaint.MyStatsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/mine/paginated", api.Middleware(http.HandlerFunc(complaint.MyComplaintsPaginatedHandler))).Methods("GET")
	apiCreate.Handle("/complaints", api.Middleware(http.HandlerFunc(complaint.AllComplaintsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/stats", api.Middleware(http.HandlerFunc(complaint.StatsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/paginated", api.Middleware(http.HandlerFunc(complaint.PaginatedComplaintsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/active-chats", api.Middleware(http.HandlerFunc(complaint.ActiveChatsHandler))).Methods("GET")
	apiCreate.Handle("/complaint/{complaint_id}", api.Middleware(http.HandlerFunc(complaint.ComplaintByIDHandler))).Methods("GET")
	apiCreate.Handle("/complaint/{complaint_id}", api.Middleware(http.HandlerFunc(complaint.UpdateComplaintHandler))).Methods("PUT")
	apiCreate.Handle("/complaint/{complaint_id}/status", api.Middleware(http.HandlerFunc(complaint.UpdateStatusHandler))).Methods("PUT")
	apiCreate.Handle("/complaint/{complaint_id}/rate", api.Middleware(http.HandlerFunc(complaint.RateComplaintHandler))).Methods("PUT")

	apiCreate.Handle("/messages/{complaint_id}", api.Middleware(http.HandlerFunc(message.MessagesByComplaintIDHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("complaint-api has connected to the database")

	// cloudinary reads CLOUDINARY_URL from the environment
	cld, err := cloudinary.New()
	if err != nil {
		zap.S().With(err).Error("failed to initialize cloudinary")
		return err
	}
	cld.Config.URL.Secure = true
	a.Cloudinary = cld

	// background jobs share the app's database connection
	a.Scheduler = scheduler.NewScheduler(
		databases.NewOTPDatabase(a.dbHelper),
		databases.NewComplaintDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

// getPage parses the page query param, defaulting to 0
func getPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

// getLimit parses the limit query param, clamped to keep one request from
// dragging the whole collection over the wire
func getLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func nowDateTime() primitive.DateTime {
	return primitive.NewDateTimeFromTime(time.Now())
}
